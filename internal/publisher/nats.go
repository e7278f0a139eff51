package publisher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"busflow/internal/sim"
)

// Conn is the subset of *nats.Conn used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
}

type NATSPublisher struct {
	nc          *nats.Conn
	conn        Conn
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
}

func NewNATSPublisher(url, prefix string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("busflow"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}
	p := newPublisher(nc, prefix, logSubjects, m)
	p.nc = nc
	return p, nil
}

func newPublisher(conn Conn, prefix string, logSubjects bool, m PublisherMetrics) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: subjectToken(prefix), logSubjects: logSubjects, metrics: m}
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			log.Warn().Err(err).Msg("nats drain")
		}
		p.nc.Close()
	}
}

type SummaryMessage struct {
	Timestamp time.Time            `json:"timestamp"`
	Capacity  int                  `json:"capacity"`
	Lines     int                  `json:"lines"`
	Top       []sim.LineStatistics `json:"top"`
	LeastFlow *sim.LineStatistics  `json:"leastFlow,omitempty"`
	LeastUsed *sim.LineStatistics  `json:"leastUsed,omitempty"`
}

// PublishReport publishes each ranked line on <prefix>.line.<line> and a summary on <prefix>.summary.
// It returns the first publish error but still attempts every message.
func (p *NATSPublisher) PublishReport(r *sim.Report, top int) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, s := range r.Lines {
		keep(p.publish(p.prefix+".line."+subjectToken(s.LineID), s))
	}

	msg := SummaryMessage{Timestamp: time.Now().UTC(), Capacity: r.Capacity, Lines: len(r.Lines)}
	if !r.Empty() {
		msg.Top, _ = r.Top(top)
		lf, _ := r.LeastFlow()
		lu, _ := r.LeastUsed()
		msg.LeastFlow, msg.LeastUsed = &lf, &lu
	}
	keep(p.publish(p.prefix+".summary", msg))
	return firstErr
}

func (p *NATSPublisher) publish(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Debug().Str("subject", subject).Msg("nats publish")
	}
	start := time.Now()
	err = p.conn.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

// subjectToken makes s usable as a single NATS subject token. Characters NATS reserves
// (whitespace, '.', '*', '>') plus '/' and '%' are percent-encoded, so distinct inputs
// map to distinct tokens. The empty string maps to "%", which no encoded value produces.
func subjectToken(s string) string {
	if s == "" {
		return "%"
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case ' ', '\t', '\r', '\n', '.', '*', '>', '/', '%':
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

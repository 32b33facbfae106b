package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-screener/internal/analysis"
	"github.com/spigell/cv-screener/internal/candidates"
	"github.com/spigell/cv-screener/internal/documents"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/skills"
)

const (
	defaultQueue     = "analyses"
	defaultExchange  = "analysis_updates"
	defaultConsumers = 1
)

// Config holds the broker settings of the worker.
type Config struct {
	URL       string `mapstructure:"amqp-url"`
	Queue     string `mapstructure:"queue"`
	Exchange  string `mapstructure:"exchange"`
	Consumers int    `mapstructure:"consumers"`
}

// Fetcher loads a document by object key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (*documents.Document, error)
}

// ResultStore persists analyzed candidates.
type ResultStore interface {
	SaveCandidate(ctx context.Context, c *candidates.Candidate) error
}

// Publisher is the part of an AMQP channel used to send updates.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Worker struct {
	cfg      Config
	analyzer *analysis.Analyzer
	fetcher  Fetcher
	store    ResultStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewWorker(cfg Config, analyzer *analysis.Analyzer, fetcher Fetcher, store ResultStore, logger *zap.Logger) *Worker {
	if cfg.Queue == "" {
		cfg.Queue = defaultQueue
	}
	if cfg.Exchange == "" {
		cfg.Exchange = defaultExchange
	}
	if cfg.Consumers <= 0 {
		cfg.Consumers = defaultConsumers
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Worker{
		cfg:      cfg,
		analyzer: analyzer,
		fetcher:  fetcher,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// Run consumes the queue with the configured number of consumers until ctx
// is cancelled or a consumer fails.
func (w *Worker) Run(ctx context.Context) error {
	conn, err := amqp.Dial(w.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	defer conn.Close()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.cfg.Consumers; i++ {
		id := i + 1
		g.Go(func() error {
			return w.consume(ctx, conn, id)
		})
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	return g.Wait()
}

func (w *Worker) consume(ctx context.Context, conn *amqp.Connection, id int) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(w.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", w.cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(w.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", w.cfg.Queue, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(w.cfg.Queue, fmt.Sprintf("cv-screener-%d", id), false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", w.cfg.Queue, err)
	}

	log := w.logger.With(zap.Int("consumer", id))
	log.Info("consumer started", zap.String("queue", w.cfg.Queue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("delivery channel closed")
			}
			w.Handle(ctx, ch, d.Body)
			if err := d.Ack(false); err != nil {
				log.Warn("ack failed", zap.Error(err))
			}
		}
	}
}

// Handle analyzes one queued document and publishes its status updates. A
// failure is reported as a failed update and never stops the consumer.
func (w *Worker) Handle(ctx context.Context, pub Publisher, body []byte) {
	msg, extra, err := DecodeMessage(body)
	if err != nil {
		id := ""
		if msg != nil {
			id = msg.ID
		}
		w.logger.Warn("cannot decode message", zap.String("id", id), zap.Error(err))
		w.publish(pub, Update{ID: id, Status: StatusFailed, Message: err.Error()})
		return
	}

	log := logger.WithFields(w.logger, logger.DocumentFields("amqp", msg.Filename)...).With(zap.String("id", msg.ID))
	w.publish(pub, Update{ID: msg.ID, Status: StatusProcessing, Message: "analysis started"})

	candidate, err := w.analyze(ctx, msg, extra)
	if err != nil {
		log.Warn("analysis failed", zap.Error(err))
		w.publish(pub, Update{ID: msg.ID, Status: StatusFailed, Message: err.Error()})
		return
	}

	total := candidate.Profile.TotalScore()
	log.Info("analysis completed",
		zap.Int("total_score", total),
		zap.String("best_suited_skill", candidate.Profile.BestSuitedSkill),
	)
	w.publish(pub, Update{
		ID:              msg.ID,
		Status:          StatusCompleted,
		Message:         "analysis completed",
		TotalScore:      &total,
		BestSuitedSkill: candidate.Profile.BestSuitedSkill,
	})
}

func (w *Worker) analyze(ctx context.Context, msg *Message, extra []skills.Entry) (*candidates.Candidate, error) {
	text := msg.Text
	name := msg.Filename
	if text == "" {
		if w.fetcher == nil {
			return nil, errors.New("no document source configured")
		}
		doc, err := w.fetcher.Fetch(ctx, msg.ObjectKey)
		if err != nil {
			return nil, err
		}
		if msg.MIME != "" {
			doc.MIME = msg.MIME
		}
		if text, err = doc.Text(); err != nil {
			return nil, err
		}
		if name == "" {
			name = doc.Name
		}
	}
	if name == "" {
		name = path.Base(msg.ObjectKey)
	}

	profile, err := w.analyzer.Analyze(text, extra...)
	if err != nil {
		return nil, err
	}

	candidate := candidates.New(name, profile)
	if id, err := uuid.Parse(msg.ID); err == nil {
		candidate.ID = id.String()
	}

	if w.store != nil {
		if err := w.store.SaveCandidate(ctx, candidate); err != nil {
			return nil, fmt.Errorf("save candidate: %w", err)
		}
	}

	return candidate, nil
}

func (w *Worker) publish(pub Publisher, update Update) {
	update.Timestamp = w.now().UTC()
	body, err := json.Marshal(update)
	if err != nil {
		w.logger.Warn("cannot marshal update", zap.Error(err))
		return
	}

	err = pub.Publish(w.cfg.Exchange, routingKey(update.ID), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		w.logger.Warn("failed to publish update", zap.String("id", update.ID), zap.Error(err))
	}
}

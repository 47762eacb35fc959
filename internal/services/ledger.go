package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mastercoin/internal/aggregate"
	"mastercoin/internal/amqp"
	"mastercoin/internal/cache"
	"mastercoin/internal/core"
	"mastercoin/internal/log"
	"mastercoin/internal/normalize"
	"mastercoin/internal/sheets"
)

var (
	// ErrIngestFailed is the single user-facing outcome of a workbook that
	// could not be decoded.
	ErrIngestFailed = errors.New("parsing failure")
	// ErrNoData means nothing is loaded or the selection matches no records.
	ErrNoData = errors.New("no data")
)

// Publisher announces completed ingests.
type Publisher interface {
	PublishIngestCompleted(ctx context.Context, msg *amqp.IngestCompletedMessage) error
}

// Dataset is one immutable generation of normalized records.
type Dataset struct {
	Version      string             `json:"version"`
	Source       string             `json:"source"`
	LoadedAt     time.Time          `json:"loadedAt"`
	Sheets       []string           `json:"sheets"`
	Months       []string           `json:"months"`
	Transactions []core.Transaction `json:"-"`
}

// MonthSnapshot is the aggregation result of a single month.
type MonthSnapshot struct {
	Month   string         `json:"month" yaml:"month"`
	Display string         `json:"display" yaml:"display"`
	Chrono  core.ChronoKey `json:"chronoKey" yaml:"chronoKey"`
	Result  core.Result    `json:"result" yaml:"result"`
}

// Ledger holds the current dataset and serves aggregations over it. A
// dataset is replaced only by a successful ingest; readers always see a
// complete generation.
type Ledger struct {
	mu   sync.RWMutex
	data *Dataset

	normalizer *normalize.Normalizer
	results    cache.Cache[core.Result]
	publisher  Publisher
	logger     *log.Logger
	structured *log.StructuredLogger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithCache memoizes aggregation results per dataset version and month.
func WithCache(c cache.Cache[core.Result]) Option {
	return func(l *Ledger) { l.results = c }
}

// WithPublisher announces every successful ingest.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = log.Discard()
	}
	l.logger = l.logger.WithComponent(log.ComponentIngest)
	l.structured = log.NewStructuredLogger(l.logger)
	l.normalizer = normalize.New(l.logger)
	return l
}

// Ingest reads a workbook from reader and replaces the dataset. On failure
// the previous dataset stays in place and ErrIngestFailed is returned.
func (l *Ledger) Ingest(ctx context.Context, reader sheets.WorkbookReader, source string) (*Dataset, error) {
	wb, err := reader.ReadWorkbook(ctx)
	if err != nil {
		l.structured.LogError(ctx, "Workbook decode failed", err, log.ComponentIngest, log.OpParse,
			log.NewFields().WithDataset("", source, 0, 0, 0))
		return nil, fmt.Errorf("%w: %w", ErrIngestFailed, err)
	}
	return l.IngestWorkbook(ctx, wb, source)
}

// IngestWorkbook normalizes an already decoded workbook and replaces the
// dataset.
func (l *Ledger) IngestWorkbook(ctx context.Context, wb sheets.Workbook, source string) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngestFailed, err)
	}

	txs := l.normalizer.Workbook(wb)
	ds := &Dataset{
		Version:      uuid.NewString(),
		Source:       source,
		LoadedAt:     time.Now().UTC(),
		Sheets:       wb.SheetNames(),
		Months:       aggregate.Months(txs),
		Transactions: txs,
	}

	l.mu.Lock()
	l.data = ds
	l.mu.Unlock()

	if l.results != nil {
		l.results.Purge()
	}

	l.structured.LogIngestCompleted(ctx, ds.Version, source, len(ds.Sheets), len(txs), len(ds.Months))

	if err := l.publishIngest(ctx, ds); err != nil {
		// The dataset is already live; the event is best effort.
		l.logger.WarnContext(ctx, "Failed to publish ingest event",
			log.FieldDatasetID, ds.Version,
			log.FieldError, err)
	}
	return ds, nil
}

func (l *Ledger) publishIngest(ctx context.Context, ds *Dataset) error {
	if l.publisher == nil {
		return nil
	}
	msg := amqp.NewIngestCompletedMessage(ds.Version, ds.Source, len(ds.Sheets), len(ds.Transactions), ds.Months)
	return l.publisher.PublishIngestCompleted(ctx, msg)
}

// Current returns the loaded dataset, if any.
func (l *Ledger) Current() (*Dataset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.data, l.data != nil
}

func (l *Ledger) current() (*Dataset, error) {
	ds, ok := l.Current()
	if !ok {
		return nil, ErrNoData
	}
	return ds, nil
}

// Calculate aggregates the records of month, or of every month for
// aggregate.AllMonths and "".
func (l *Ledger) Calculate(ctx context.Context, month string) (core.Result, error) {
	ds, err := l.current()
	if err != nil {
		return core.Result{}, err
	}
	return l.calculate(ctx, ds, month)
}

func (l *Ledger) calculate(ctx context.Context, ds *Dataset, month string) (core.Result, error) {
	if month == "" {
		month = aggregate.AllMonths
	}
	key := cache.Key(ds.Version, month)
	if l.results != nil {
		if res, ok := l.results.Get(key); ok {
			return res, nil
		}
	}

	selection := aggregate.SelectMonth(ds.Transactions, month)
	if len(selection) == 0 {
		return core.Result{}, fmt.Errorf("month %q: %w", month, ErrNoData)
	}
	res := aggregate.Aggregate(ds.Transactions, selection)
	l.logger.DebugContext(ctx, "Aggregated selection",
		log.FieldMonth, month,
		log.FieldRecordCount, len(selection),
		log.FieldDatasetID, ds.Version)

	if l.results != nil {
		l.results.Set(key, res)
	}
	return res, nil
}

// Snapshots aggregates every month of the dataset concurrently and returns
// them in calendar order.
func (l *Ledger) Snapshots(ctx context.Context) ([]MonthSnapshot, error) {
	ds, err := l.current()
	if err != nil {
		return nil, err
	}

	out := make([]MonthSnapshot, len(ds.Months))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, month := range ds.Months {
		i, month := i, month
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := l.calculate(gctx, ds, month)
			if err != nil {
				return err
			}
			out[i] = MonthSnapshot{
				Month:   month,
				Display: core.DisplayMonth(month),
				Chrono:  core.ChronoFromSheet(month),
				Result:  res,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("snapshot months: %w", err)
	}
	return out, nil
}

// Trends returns per-month pillar totals.
func (l *Ledger) Trends() ([]core.PillarTrendPoint, error) {
	ds, err := l.current()
	if err != nil {
		return nil, err
	}
	return aggregate.PillarTrends(ds.Transactions), nil
}

// Months returns the month labels of the dataset in calendar order.
func (l *Ledger) Months() ([]string, error) {
	ds, err := l.current()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), ds.Months...), nil
}

// Transactions returns the normalized records of month, or all of them.
func (l *Ledger) Transactions(month string) ([]core.Transaction, error) {
	ds, err := l.current()
	if err != nil {
		return nil, err
	}
	return aggregate.SelectMonth(ds.Transactions, month), nil
}

package alarm

import (
	"context"
	"strings"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"firealarm/logger"
	"firealarm/model"
)

const defaultActor = "system"

// Store is the persistence collaborator. Latest and Get return (nil, nil) when
// nothing matches.
type Store interface {
	Latest(ctx context.Context, deviceID string) (*model.AlarmRecord, error)
	Get(ctx context.Context, id string) (*model.AlarmRecord, error)
	Create(ctx context.Context, rec *model.AlarmRecord) error
	Save(ctx context.Context, rec *model.AlarmRecord) error
	List(ctx context.Context, limit int) ([]model.AlarmRecord, error)
	ListByDevice(ctx context.Context, deviceID string) ([]model.AlarmRecord, error)
}

type Config struct {
	ArmDelay     time.Duration
	ListLimit    int
	StoreTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ArmDelay:     time.Minute,
		ListLimit:    100,
		StoreTimeout: 5 * time.Second,
	}
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = append(s.notifier, n)
		}
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// Service owns the per-device alarm state machine.
type Service struct {
	store    Store
	locker   Locker
	cfg      Config
	now      func() time.Time
	notifier Notifiers
	log      *logrus.Entry
}

func NewService(store Store, locker Locker, cfg Config, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = def.ListLimit
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = def.StoreTimeout
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	s := &Service{
		store:  store,
		locker: locker,
		cfg:    cfg,
		now:    time.Now,
		log:    logger.Log.WithFields(logrus.Fields{"component": "alarm"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type IngestResult struct {
	Record  model.AlarmRecord
	Outcome Outcome
	Ack     bool
	AckUser string
	Message string
}

// Ingest applies one telemetry post to the device's current record.
func (s *Service) Ingest(ctx context.Context, in Telemetry) (*IngestResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	log := s.log.WithFields(logrus.Fields{"device": in.DeviceID})

	unlock, err := s.lock(ctx, in.DeviceID)
	if err != nil {
		return nil, err
	}
	tr, err := s.ingestLocked(ctx, in)
	unlock()
	if err != nil {
		return nil, err
	}

	rec := *tr.Record
	switch tr.Outcome {
	case OutcomeOpened, OutcomeRaised:
		log.WithFields(logrus.Fields{"record": rec.ID, "outcome": tr.Outcome}).Warn("Alarm raised")
		s.notifier.AlarmRaised(ctx, rec)
	default:
		log.WithFields(logrus.Fields{"record": rec.ID, "outcome": tr.Outcome}).Debug("Telemetry applied")
	}
	return newIngestResult(rec, tr.Outcome), nil
}

// ingestLocked runs under one StoreTimeout deadline, which is kept shorter than
// the device lock's TTL.
func (s *Service) ingestLocked(ctx context.Context, in Telemetry) (Transition, error) {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	current, err := s.store.Latest(sctx, in.DeviceID)
	if err != nil {
		return Transition{}, infra("load current record", err)
	}
	now := s.now()
	tr := ApplyTelemetry(current, in, now, s.cfg.ArmDelay)
	if tr.Created {
		tr.Record.ID = uuid.NewV4().String()
	}
	if err := s.checkInvariants(tr.Record); err != nil {
		return Transition{}, err
	}

	if tr.Created {
		err = s.store.Create(sctx, tr.Record)
	} else {
		err = s.store.Save(sctx, tr.Record)
	}
	if err != nil {
		return Transition{}, infra("persist alarm record", err)
	}
	return tr, nil
}

func newIngestResult(rec model.AlarmRecord, outcome Outcome) *IngestResult {
	res := &IngestResult{
		Record:  rec,
		Outcome: outcome,
		Ack:     rec.State != model.StateAlarm,
	}
	if res.Ack && rec.Acknowledged {
		res.AckUser = rec.AcknowledgedBy
	}
	switch outcome {
	case OutcomeOpened, OutcomeRaised:
		res.Message = "Alarm raised"
	case OutcomeLatched:
		res.Message = "Alarm already active"
	case OutcomeCooling:
		res.Message = "Cooldown active, wait before new alarm"
	case OutcomeArmed:
		res.Message = "System armed"
	case OutcomeSeeded:
		res.Message = "Device registered"
	}
	return res
}

// Acknowledge closes an active alarm and restarts the device's re-arm timer.
func (s *Service) Acknowledge(ctx context.Context, id string, actor string) (*model.AlarmRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id", Reason: "required"}
	}
	if strings.TrimSpace(actor) == "" {
		actor = defaultActor
	}
	found, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, found.DeviceID)
	if err != nil {
		return nil, err
	}
	rec, err := s.acknowledgeLocked(ctx, id, actor)
	unlock()
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"device": rec.DeviceID, "record": rec.ID, "actor": actor}).Info("Alarm acknowledged")
	s.notifier.AlarmAcknowledged(ctx, *rec)
	return rec, nil
}

func (s *Service) acknowledgeLocked(ctx context.Context, id string, actor string) (*model.AlarmRecord, error) {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	rec, err := s.find(sctx, id)
	if err != nil {
		return nil, err
	}
	if rec.State != model.StateAlarm {
		return nil, ErrInvalidTransition
	}

	now := model.NewJsonTime(s.now())
	next := *rec
	next.State = model.StateSafe
	next.Acknowledged = true
	next.AcknowledgedBy = actor
	next.AcknowledgedAt = now
	next.ArmedAt = now
	if err := s.checkInvariants(&next); err != nil {
		return nil, err
	}

	if err := s.store.Save(sctx, &next); err != nil {
		return nil, infra("persist acknowledgement", err)
	}
	return &next, nil
}

// List returns the newest records across all devices, capped at ListLimit.
func (s *Service) List(ctx context.Context) ([]model.AlarmRecord, error) {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	recs, err := s.store.List(sctx, s.cfg.ListLimit)
	if err != nil {
		return nil, infra("list alarm records", err)
	}
	return recs, nil
}

func (s *Service) ListByDevice(ctx context.Context, deviceID string) ([]model.AlarmRecord, error) {
	if strings.TrimSpace(deviceID) == "" {
		return nil, &ValidationError{Field: "devId", Reason: "required"}
	}
	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	recs, err := s.store.ListByDevice(sctx, deviceID)
	if err != nil {
		return nil, infra("list device alarm records", err)
	}
	return recs, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.AlarmRecord, error) {
	return s.get(ctx, id)
}

func (s *Service) get(ctx context.Context, id string) (*model.AlarmRecord, error) {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return s.find(sctx, id)
}

func (s *Service) find(ctx context.Context, id string) (*model.AlarmRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, infra("get alarm record", err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// lock waits at most StoreTimeout for the device.
func (s *Service) lock(ctx context.Context, deviceID string) (func(), error) {
	lctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	unlock, err := s.locker.Lock(lctx, deviceID)
	if err != nil {
		return nil, infra("lock device", err)
	}
	return unlock, nil
}

func (s *Service) checkInvariants(rec *model.AlarmRecord) error {
	if err := CheckInvariants(rec); err != nil {
		s.log.WithFields(logrus.Fields{"device": rec.DeviceID, "record": rec.ID}).
			Error("Alarm record invariant violated: ", err)
		return infra("check record invariants", err)
	}
	return nil
}

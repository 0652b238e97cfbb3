package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"classroom-sync/core/config"
	"classroom-sync/core/events"
	"classroom-sync/core/lock"
	"classroom-sync/core/logger"
	"classroom-sync/core/metrics"
	"classroom-sync/feature/classroom/diff"
	"classroom-sync/feature/classroom/reconcile"
	"classroom-sync/feature/classroom/stats"
	"classroom-sync/feature/classroom/store"
	"classroom-sync/feature/snapshot"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options tune an Importer.
type Options struct {
	// Concurrency bounds how many classrooms are reconciled at once.
	Concurrency int
	// Timeout stops new groups from starting. Committed groups are kept.
	Timeout time.Duration
	// PatchCosmeticChanges enables metadata patches on graded submissions.
	PatchCosmeticChanges bool
	// Preview attaches a diff of the plan to the result.
	Preview bool
}

// OptionsFromConfig maps the import configuration section.
func OptionsFromConfig(cfg config.ImportConfig) Options {
	return Options{
		Concurrency:          cfg.Concurrency,
		Timeout:              cfg.Timeout(),
		PatchCosmeticChanges: cfg.PatchCosmeticChanges,
		Preview:              cfg.Preview,
	}
}

// CompletedEvent is published after every import run.
type CompletedEvent struct {
	ImportID string  `json:"importId"`
	Teacher  string  `json:"teacher"`
	Outcome  Outcome `json:"outcome"`
	Summary  string  `json:"summary"`
	Errors   int     `json:"errors"`
}

// Importer runs snapshot imports.
type Importer struct {
	store     *store.Store
	locker    lock.Locker
	publisher events.Publisher
	metrics   *metrics.Recorder
	logger    *zap.Logger
	tracer    trace.Tracer
	opts      Options
}

// New creates an Importer. publisher and recorder may be nil.
func New(st *store.Store, locker lock.Locker, publisher events.Publisher, recorder *metrics.Recorder, logger *zap.Logger, opts Options) *Importer {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Importer{
		store:     st,
		locker:    locker,
		publisher: publisher,
		metrics:   recorder,
		logger:    logger,
		tracer:    otel.Tracer("classroom-sync/importer"),
		opts:      opts,
	}
}

// Policy returns the reconciliation policy the importer applies.
func (i *Importer) Policy() reconcile.Policy {
	return reconcile.Policy{PatchCosmeticChanges: i.opts.PatchCosmeticChanges}
}

// ImportReader decodes a raw snapshot and imports it. A malformed or invalid
// document aborts the run before anything is written.
func (i *Importer) ImportReader(ctx context.Context, r io.Reader) (*Result, error) {
	snap, err := snapshot.Decode(r)
	if err != nil {
		result := newResult(uuid.NewString())
		return result, i.abort(ctx, result, time.Now(), PhaseValidating, err)
	}
	return i.Import(ctx, snap)
}

// Import reconciles snap into the store.
//
// The returned error is non-nil only when the run was aborted; nothing was
// written then. Group and entity failures are reported in the Result with
// OutcomeSucceededWithErrors.
func (i *Importer) Import(ctx context.Context, snap *snapshot.Snapshot) (*Result, error) {
	started := time.Now()
	result := newResult(uuid.NewString())

	ctx, span := i.tracer.Start(ctx, "classroom.import", trace.WithAttributes(attribute.String("import.id", result.ImportID)))
	defer span.End()

	if err := snapshot.Validate(snap); err != nil {
		return result, i.abort(ctx, result, started, PhaseValidating, err)
	}
	result.Teacher = store.NormalizeEmail(snap.Teacher.Email)
	result.complete(PhaseValidating)
	span.SetAttributes(attribute.String("teacher", result.Teacher))

	log := logger.ForTeacher(i.logger, result.Teacher, result.ImportID)

	if i.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.opts.Timeout)
		defer cancel()
	}

	release, err := i.locker.Acquire(ctx, "teacher:"+result.Teacher)
	if err != nil {
		return result, i.abort(ctx, result, started, PhaseReconciling, fmt.Errorf("failed to lock teacher %s: %w", result.Teacher, err))
	}
	defer release()

	state, err := i.store.LoadTeacherState(ctx, result.Teacher, snap.ClassroomIDs())
	if err != nil {
		return result, i.abort(ctx, result, started, PhaseReconciling, err)
	}
	plan := reconcile.BuildPlan(state, snap, i.Policy())

	if i.opts.Preview {
		result.enter(PhaseDiffing)
		result.Preview = diff.Compute(plan)
		result.complete(PhaseDiffing)
	}

	result.enter(PhaseReconciling)
	if err := i.reconcile(ctx, plan, result, log); err != nil {
		return result, i.abort(ctx, result, started, PhaseReconciling, err)
	}
	result.complete(PhaseReconciling)

	if err := ctx.Err(); err != nil {
		// Timed out: committed groups stay, counts are refreshed by the next run.
		result.addError("aggregating", fmt.Errorf("skipped: %w", err))
	} else {
		result.enter(PhaseAggregating)
		if err := i.aggregate(ctx, result, log); err != nil {
			result.addError("aggregating", err)
		} else {
			result.complete(PhaseAggregating)
		}
	}

	result.enter(PhaseDone)
	result.Outcome = OutcomeSucceeded
	if !result.clean() {
		result.Outcome = OutcomeSucceededWithErrors
	}
	i.finish(ctx, result, started)

	log.Info("import finished",
		zap.String("outcome", string(result.Outcome)),
		zap.Int64("processing_time_ms", result.ProcessingTimeMs),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// reconcile applies the plan. Only a failed teacher group aborts the run.
func (i *Importer) reconcile(ctx context.Context, plan *reconcile.ImportPlan, result *Result, log *zap.Logger) error {
	ctx, span := i.tracer.Start(ctx, "classroom.import.reconcile")
	defer span.End()

	session := reconcile.NewSession(i.store.DB(), plan, log)

	teacher := session.ApplyTeacher(ctx)
	if !teacher.Succeeded() {
		result.Groups = append(result.Groups, teacher)
		if teacher.Err != nil {
			return teacher.Err
		}
		return errors.New("teacher was not reconciled")
	}
	result.addGroup(teacher)
	result.addGroup(session.ApplyClassrooms(ctx))

	groups := make([][]reconcile.GroupResult, len(plan.Rooms))
	var g errgroup.Group
	g.SetLimit(i.opts.Concurrency)
	for idx, room := range plan.Rooms {
		g.Go(func() error {
			groups[idx] = session.ApplyClassroom(ctx, room)
			return nil
		})
	}
	_ = g.Wait()

	for _, room := range groups {
		for _, group := range room {
			result.addGroup(group)
		}
	}
	span.SetAttributes(attribute.Int("groups", len(result.Groups)))
	return nil
}

// aggregate recomputes statistics from persisted state and stores the counts.
func (i *Importer) aggregate(ctx context.Context, result *Result, log *zap.Logger) error {
	ctx, span := i.tracer.Start(ctx, "classroom.import.aggregate")
	defer span.End()

	state, err := i.store.LoadTeacherState(ctx, result.Teacher, nil)
	if err != nil {
		return err
	}
	if state.Teacher == nil {
		return fmt.Errorf("teacher %s: %w", result.Teacher, store.ErrNotFound)
	}

	aggregated := stats.Aggregate(state)
	result.Stats = aggregated

	if _, err := i.store.WriteTeacherCounts(ctx, state.Teacher, aggregated.Counts()); err != nil {
		return err
	}
	for idx, c := range state.Classrooms {
		if _, err := i.store.WriteClassroomCounts(ctx, c.Classroom, aggregated.Classrooms[idx].Counts()); err != nil {
			return err
		}
	}

	log.Debug("aggregates written",
		zap.Int("classrooms", aggregated.TotalClassrooms),
		zap.Int("ungraded", aggregated.UngradedSubmissions))
	return nil
}

func (i *Importer) abort(ctx context.Context, result *Result, started time.Time, phase Phase, err error) error {
	result.State = PhaseFailed
	result.Outcome = OutcomeAborted
	result.addError(string(phase), err)
	i.finish(ctx, result, started)

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	i.logger.Warn("import aborted",
		zap.String("import_id", result.ImportID),
		zap.String("teacher", result.Teacher),
		zap.String("phase", string(phase)),
		zap.Error(err))
	return err
}

// finish stamps timing and summary, then records metrics and publishes the event.
func (i *Importer) finish(ctx context.Context, result *Result, started time.Time) {
	elapsed := time.Since(started)
	result.ProcessingTimeMs = elapsed.Milliseconds()
	result.Summary = result.summarize()

	i.metrics.ObserveImport(string(result.Outcome), elapsed)
	for _, entity := range []string{"teacher", "classroom", "enrollment", "assignment", "submission"} {
		c := result.Counters.ByEntity(entity)
		i.metrics.AddEntities(entity, "created", c.Created)
		i.metrics.AddEntities(entity, "updated", c.Updated)
		i.metrics.AddEntities(entity, "unchanged", c.Unchanged)
		i.metrics.AddEntities(entity, "archived", c.Archived)
		i.metrics.AddEntities(entity, "versioned", c.Versioned)
		i.metrics.AddEntities(entity, "patched", c.Patched)
		i.metrics.AddEntities(entity, "failed", c.Failed)
	}

	event := events.EventImportCompleted
	if result.Outcome == OutcomeAborted {
		event = events.EventImportFailed
	}
	payload := CompletedEvent{
		ImportID: result.ImportID,
		Teacher:  result.Teacher,
		Outcome:  result.Outcome,
		Summary:  result.Summary,
		Errors:   len(result.Errors),
	}
	if err := i.publisher.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		i.logger.Warn("failed to publish import event", zap.String("import_id", result.ImportID), zap.Error(err))
	}
}

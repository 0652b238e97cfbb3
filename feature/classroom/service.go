package classroom

import (
	"context"
	"fmt"
	"io"
	"time"

	"classroom-sync/core/events"
	"classroom-sync/core/lock"
	"classroom-sync/core/storage"
	"classroom-sync/feature/classroom/diff"
	"classroom-sync/feature/classroom/importer"
	"classroom-sync/feature/classroom/models"
	"classroom-sync/feature/classroom/stats"
	"classroom-sync/feature/classroom/store"
	"classroom-sync/feature/snapshot"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Options configures a Service.
type Options struct {
	// Bucket and Prefix locate archived snapshots. Archiving is off without a storage client.
	Bucket string
	Prefix string
	// StatsTTL is how long stats are served from memory. Zero disables caching.
	StatsTTL time.Duration
}

// GradeRecordedEvent is published after a grade is written through the API.
type GradeRecordedEvent struct {
	SubmissionID string  `json:"submissionId"`
	GradeID      string  `json:"gradeId"`
	Teacher      string  `json:"teacher"`
	Score        float64 `json:"score"`
	MaxScore     float64 `json:"maxScore"`
}

// Service handles classroom operations.
type Service struct {
	store     *store.Store
	importer  *importer.Importer
	locker    lock.Locker
	publisher events.Publisher
	client    storage.Client
	logger    *zap.Logger
	opts      Options

	group singleflight.Group
	cache *statsCache
	now   func() time.Time
}

// NewService creates a new classroom service. client and publisher may be nil.
func NewService(st *store.Store, imp *importer.Importer, locker lock.Locker, publisher events.Publisher, client storage.Client, logger *zap.Logger, opts Options) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		store:     st,
		importer:  imp,
		locker:    locker,
		publisher: publisher,
		client:    client,
		logger:    logger,
		opts:      opts,
		cache:     newStatsCache(opts.StatsTTL, time.Now),
		now:       time.Now,
	}
}

// Decode reads and validates a raw snapshot.
func (s *Service) Decode(r io.Reader) (*snapshot.Snapshot, error) {
	return snapshot.Decode(r)
}

// Import archives snap when storage is configured, then imports it.
func (s *Service) Import(ctx context.Context, snap *snapshot.Snapshot) (*importer.Result, error) {
	if s.client != nil && snapshot.Validate(snap) == nil {
		key, err := snapshot.Archive(ctx, s.client, s.opts.Bucket, s.opts.Prefix, snap, s.now())
		if err != nil {
			s.logger.Warn("Failed to archive snapshot", zap.String("teacher", snap.Teacher.Email), zap.Error(err))
		} else {
			s.logger.Debug("Snapshot archived", zap.String("key", key))
		}
	}

	result, err := s.importer.Import(ctx, snap)
	if result != nil && result.Teacher != "" {
		s.invalidate(result.Teacher)
	}
	return result, err
}

// ImportLatest re-imports the newest archived snapshot of a teacher.
func (s *Service) ImportLatest(ctx context.Context, email string) (*importer.Result, error) {
	if s.client == nil {
		return nil, fmt.Errorf("snapshot storage is not configured")
	}
	snap, key, err := snapshot.LoadLatest(ctx, s.client, s.opts.Bucket, s.opts.Prefix, email)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Importing archived snapshot", zap.String("key", key))

	result, err := s.importer.Import(ctx, snap)
	if result != nil && result.Teacher != "" {
		s.invalidate(result.Teacher)
	}
	return result, err
}

// Preview reports what importing snap would change, without writing.
func (s *Service) Preview(ctx context.Context, snap *snapshot.Snapshot) (*diff.Result, error) {
	if err := snapshot.Validate(snap); err != nil {
		return nil, err
	}
	return diff.Preview(ctx, s.store, snap, s.importer.Policy())
}

// Stats returns a teacher's aggregates. Concurrent requests for the same
// teacher share one computation.
func (s *Service) Stats(ctx context.Context, email string) (*stats.Stats, error) {
	email = store.NormalizeEmail(email)

	cached, gen, ok := s.cache.lookup(email)
	if ok {
		return cached, nil
	}

	// Requests arriving after an invalidation never join a computation
	// started before it.
	key := fmt.Sprintf("%s#%d", email, gen)
	v, err, _ := s.group.Do(key, func() (any, error) {
		computed, err := stats.Compute(ctx, s.store, email)
		if err != nil {
			return nil, err
		}
		s.cache.store(email, gen, computed)
		return computed, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*stats.Stats), nil
}

// History returns every version of a submission, newest first.
func (s *Service) History(ctx context.Context, submissionID string) ([]store.VersionRecord, error) {
	return s.store.SubmissionHistory(ctx, submissionID)
}

// GradeSubmission records a grade on the latest version of a submission.
// It holds the teacher's import lock so a concurrent import cannot version
// the submission underneath it.
func (s *Service) GradeSubmission(ctx context.Context, submissionID string, grade snapshot.Grade) (*models.Grade, error) {
	if err := snapshot.ValidateGrade(grade); err != nil {
		return nil, err
	}

	email, err := s.store.TeacherEmailForSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, "teacher:"+email)
	if err != nil {
		return nil, fmt.Errorf("failed to lock teacher %s: %w", email, err)
	}
	defer release()

	row, err := s.store.RecordGrade(ctx, submissionID, grade, models.GradeSourceAction)
	if err != nil {
		return nil, err
	}
	s.invalidate(email)

	event := GradeRecordedEvent{
		SubmissionID: submissionID,
		GradeID:      row.ID,
		Teacher:      email,
		Score:        row.Score,
		MaxScore:     row.MaxScore,
	}
	if err := s.publisher.Publish(ctx, events.EventGradeRecorded, event); err != nil {
		s.logger.Warn("Failed to publish grade event", zap.String("submission", submissionID), zap.Error(err))
	}
	return row, nil
}

func (s *Service) invalidate(email string) {
	s.cache.invalidate(store.NormalizeEmail(email))
}

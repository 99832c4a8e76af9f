package service

import (
	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/repository"
	"alcyxob/strength-academy/internal/schedule"
	"alcyxob/strength-academy/internal/storage"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrCheckInNotFound        = errors.New("check-in not found")
	ErrCheckInNotOwned        = errors.New("check-in does not belong to this athlete")
	ErrCheckInLocked          = errors.New("check-in can no longer be edited")
	ErrCheckInStillEditable   = errors.New("an editable check-in already exists for this workout")
	ErrWorkoutNotOnCalendar   = errors.New("workout is not on this athlete's calendar")
	ErrMediaNotFound          = errors.New("media not found")
	ErrUnsupportedMedia       = errors.New("media must be an image or a video")
	ErrUploadURLError         = errors.New("failed to generate upload URL")
	ErrDownloadURLError       = errors.New("failed to generate download URL")
	ErrUploadNotFound         = errors.New("uploaded object not found")
	ErrObjectKeyMismatch      = errors.New("object key does not belong to this check-in")
	ErrUploadConfirmationFail = errors.New("failed to confirm upload")
)

// CheckInInput is what an athlete reports after a workout.
type CheckInInput struct {
	Readiness      int
	Energy         int
	Soreness       int
	Notes          string
	PersonalRecord *domain.PersonalRecord
}

// CheckInState is a check-in together with its evaluated edit window.
type CheckInState struct {
	CheckIn     *domain.CheckIn      `json:"checkIn"`
	Editability schedule.Editability `json:"editability"`
}

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // reported back on confirm
}

type CheckInService interface {
	SubmitCheckIn(ctx context.Context, athleteID, workoutID primitive.ObjectID, in CheckInInput) (*CheckInState, error)
	UpdateCheckIn(ctx context.Context, athleteID, checkInID primitive.ObjectID, in CheckInInput) (*CheckInState, error)
	GetCurrentCheckIn(ctx context.Context, athleteID, workoutID primitive.ObjectID) (*CheckInState, error)

	// Media upload
	RequestMediaUploadURL(ctx context.Context, athleteID, checkInID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmMediaUpload(ctx context.Context, athleteID, checkInID primitive.ObjectID, objectKey, fileName string) (*domain.Media, error)
	GetMediaURL(ctx context.Context, athleteID, checkInID, mediaID primitive.ObjectID) (string, error)
}

type checkInService struct {
	checkInRepo    repository.CheckInRepository
	workoutRepo    repository.WorkoutRepository
	enrollmentRepo repository.EnrollmentRepository
	mediaRepo      repository.MediaRepository
	fileStorage    storage.FileStorage
	logger         *zap.Logger
	now            func() time.Time
}

func NewCheckInService(
	checkInRepo repository.CheckInRepository,
	workoutRepo repository.WorkoutRepository,
	enrollmentRepo repository.EnrollmentRepository,
	mediaRepo repository.MediaRepository,
	fileStorage storage.FileStorage,
	logger *zap.Logger,
) CheckInService {
	return &checkInService{
		checkInRepo:    checkInRepo,
		workoutRepo:    workoutRepo,
		enrollmentRepo: enrollmentRepo,
		mediaRepo:      mediaRepo,
		fileStorage:    fileStorage,
		logger:         logger,
		now:            time.Now,
	}
}

// SubmitCheckIn records a new check-in for a workout on the athlete's
// calendar. While an earlier check-in is still editable it must be updated
// instead.
func (s *checkInService) SubmitCheckIn(ctx context.Context, athleteID, workoutID primitive.ObjectID, in CheckInInput) (*CheckInState, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.ensureOnCalendar(ctx, athleteID, workoutID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	existing, err := s.checkInRepo.GetByAthleteAndWorkout(ctx, athleteID, workoutID)
	if err != nil {
		return nil, err
	}
	if current := schedule.SelectCurrentCheckIn(existing, now); current != nil &&
		schedule.EvaluateCheckInEditability(current, now).CanEdit {
		return nil, ErrCheckInStillEditable
	}

	checkIn := &domain.CheckIn{
		WorkoutID:   workoutID,
		AthleteID:   athleteID,
		SubmittedAt: now,
		Status:      domain.CheckInSubmitted,
	}
	in.apply(checkIn)

	id, err := s.checkInRepo.Create(ctx, checkIn)
	if err != nil {
		return nil, err
	}
	checkIn.ID = id

	s.logger.Info("check-in submitted",
		zap.String("check_in_id", id.Hex()),
		zap.String("workout_id", workoutID.Hex()),
		zap.String("athlete_id", athleteID.Hex()),
	)
	return &CheckInState{CheckIn: checkIn, Editability: schedule.EvaluateCheckInEditability(checkIn, now)}, nil
}

// UpdateCheckIn edits a check-in inside its revision window. Editing a
// check-in sent back for revision resubmits it.
func (s *checkInService) UpdateCheckIn(ctx context.Context, athleteID, checkInID primitive.ObjectID, in CheckInInput) (*CheckInState, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	checkIn, err := s.ownedCheckIn(ctx, athleteID, checkInID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if !schedule.EvaluateCheckInEditability(checkIn, now).CanEdit {
		return nil, ErrCheckInLocked
	}

	in.apply(checkIn)
	if checkIn.Status == domain.CheckInNeedsRevision {
		checkIn.Status = domain.CheckInSubmitted
		checkIn.SubmittedAt = now
		checkIn.RevisionRequestedAt = nil
	}
	if err := s.checkInRepo.Update(ctx, checkIn); err != nil {
		return nil, err
	}
	return &CheckInState{CheckIn: checkIn, Editability: schedule.EvaluateCheckInEditability(checkIn, now)}, nil
}

// GetCurrentCheckIn returns the check-in the athlete would edit for a
// workout. CheckIn is nil when there is none yet.
func (s *checkInService) GetCurrentCheckIn(ctx context.Context, athleteID, workoutID primitive.ObjectID) (*CheckInState, error) {
	checkIns, err := s.checkInRepo.GetByAthleteAndWorkout(ctx, athleteID, workoutID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	current := schedule.SelectCurrentCheckIn(checkIns, now)
	return &CheckInState{CheckIn: current, Editability: schedule.EvaluateCheckInEditability(current, now)}, nil
}

// === Media Upload ===

// RequestMediaUploadURL generates a pre-signed URL for attaching a file to an
// editable check-in.
func (s *checkInService) RequestMediaUploadURL(ctx context.Context, athleteID, checkInID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	kind, ext, ok := strings.Cut(contentType, "/")
	if !ok || ext == "" || (kind != "video" && kind != "image") {
		return nil, ErrUnsupportedMedia
	}

	checkIn, err := s.ownedCheckIn(ctx, athleteID, checkInID)
	if err != nil {
		return nil, err
	}
	if !schedule.EvaluateCheckInEditability(checkIn, s.now().UTC()).CanEdit {
		return nil, ErrCheckInLocked
	}

	objectKey := path.Join(mediaKeyPrefix(athleteID, checkInID), fmt.Sprintf("%s.%s", uuid.NewString(), ext))
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		s.logger.Error("presign upload failed", zap.String("key", objectKey), zap.Error(err))
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmMediaUpload records an object the athlete uploaded through a
// pre-signed URL and attaches it to the check-in.
func (s *checkInService) ConfirmMediaUpload(ctx context.Context, athleteID, checkInID primitive.ObjectID, objectKey, fileName string) (*domain.Media, error) {
	if !strings.HasPrefix(objectKey, mediaKeyPrefix(athleteID, checkInID)+"/") {
		return nil, ErrObjectKeyMismatch
	}
	checkIn, err := s.ownedCheckIn(ctx, athleteID, checkInID)
	if err != nil {
		return nil, err
	}

	info, err := s.fileStorage.StatObject(ctx, objectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}

	if fileName == "" {
		fileName = path.Base(objectKey)
	}
	media := &domain.Media{
		CheckInID:   checkInID,
		AthleteID:   athleteID,
		S3ObjectKey: objectKey,
		FileName:    fileName,
		ContentType: info.ContentType,
		Size:        info.Size,
	}
	mediaID, err := s.mediaRepo.Create(ctx, media)
	if err != nil {
		s.logger.Error("failed to save media metadata", zap.String("key", objectKey), zap.Error(err))
		return nil, ErrUploadConfirmationFail
	}
	media.ID = mediaID

	checkIn.MediaIDs = append(checkIn.MediaIDs, mediaID)
	if err := s.checkInRepo.Update(ctx, checkIn); err != nil {
		s.logger.Error("failed to attach media to check-in",
			zap.String("check_in_id", checkInID.Hex()),
			zap.String("media_id", mediaID.Hex()),
			zap.Error(err),
		)
		return nil, ErrUploadConfirmationFail
	}
	return media, nil
}

// GetMediaURL returns a temporary download URL for the athlete's own media.
func (s *checkInService) GetMediaURL(ctx context.Context, athleteID, checkInID, mediaID primitive.ObjectID) (string, error) {
	if _, err := s.ownedCheckIn(ctx, athleteID, checkInID); err != nil {
		return "", err
	}
	return mediaDownloadURL(ctx, s.mediaRepo, s.fileStorage, checkInID, mediaID)
}

// === Helpers ===

func (s *checkInService) ownedCheckIn(ctx context.Context, athleteID, checkInID primitive.ObjectID) (*domain.CheckIn, error) {
	checkIn, err := s.checkInRepo.GetByID(ctx, checkInID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCheckInNotFound
		}
		return nil, err
	}
	if checkIn.AthleteID != athleteID {
		return nil, ErrCheckInNotOwned
	}
	return checkIn, nil
}

// ensureOnCalendar checks that the workout belongs to the athlete: either
// authored for them or part of a program they are actively enrolled in.
func (s *checkInService) ensureOnCalendar(ctx context.Context, athleteID, workoutID primitive.ObjectID) error {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return err
	}
	if workout.IsTemplate {
		return ErrWorkoutNotOnCalendar
	}
	if workout.IsPersonal() {
		if *workout.AthleteID != athleteID {
			return ErrWorkoutNotOnCalendar
		}
		return nil
	}
	if workout.ProgramID == nil {
		return ErrWorkoutNotOnCalendar
	}

	enrollments, err := s.enrollmentRepo.GetByAthleteID(ctx, athleteID)
	if err != nil {
		return err
	}
	for _, e := range enrollments {
		if e.IsActive() && e.ProgramID == *workout.ProgramID {
			return nil
		}
	}
	return ErrWorkoutNotOnCalendar
}

func (in CheckInInput) validate() error {
	scores := []struct {
		name  string
		value int
	}{{"readiness", in.Readiness}, {"energy", in.Energy}, {"soreness", in.Soreness}}
	for _, sc := range scores {
		if sc.value < 1 || sc.value > 10 {
			return validationError("%s must be between 1 and 10", sc.name)
		}
	}
	if in.PersonalRecord != nil && strings.TrimSpace(in.PersonalRecord.Exercise) == "" {
		return validationError("personal record needs an exercise")
	}
	return nil
}

func (in CheckInInput) apply(c *domain.CheckIn) {
	c.Readiness = in.Readiness
	c.Energy = in.Energy
	c.Soreness = in.Soreness
	c.Notes = in.Notes
	c.PersonalRecord = in.PersonalRecord
}

// mediaKeyPrefix is checkins/<athlete>/<checkin>.
func mediaKeyPrefix(athleteID, checkInID primitive.ObjectID) string {
	return path.Join("checkins", athleteID.Hex(), checkInID.Hex())
}

func mediaDownloadURL(ctx context.Context, mediaRepo repository.MediaRepository, fileStorage storage.FileStorage, checkInID, mediaID primitive.ObjectID) (string, error) {
	media, err := mediaRepo.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrMediaNotFound
		}
		return "", err
	}
	if media.CheckInID != checkInID {
		return "", ErrMediaNotFound
	}
	url, err := fileStorage.GeneratePresignedDownloadURL(ctx, media.S3ObjectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", ErrDownloadURLError
	}
	return url, nil
}

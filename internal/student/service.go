package student

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"student-api/internal/blob"
	"student-api/internal/events"

	"github.com/go-playground/validator/v10"
)

// MaxImageSize caps uploaded profile images at 5 MiB.
const MaxImageSize = 5 << 20

var allowedImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

type Service interface {
	AddStudent(ctx context.Context, input Input, upload *Upload) (int, error)
	UpdateStudent(ctx context.Context, id int, input Input, upload *Upload) error
	DeleteStudent(ctx context.Context, id int) error
	GetStudentByID(ctx context.Context, id int) (*View, error)
	ListStudents(ctx context.Context) ([]View, error)
	ListMajors(ctx context.Context) ([]Major, error)
}

// service sequences the repository and the blob store so the two never
// diverge in a way a later read can observe. There is no shared transaction:
// the row is authoritative and blob cleanup is best-effort (logged, never
// surfaced once the row mutation committed).
type service struct {
	repo     Repository
	blobs    *blob.Store
	producer *events.Producer
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(repo Repository, blobs *blob.Store, producer *events.Producer, logger *slog.Logger) Service {
	return &service{
		repo:     repo,
		blobs:    blobs,
		producer: producer,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *service) AddStudent(ctx context.Context, input Input, upload *Upload) (int, error) {
	if err := s.validateInput(&input); err != nil {
		return 0, err
	}

	ref, err := s.storeUpload(ctx, upload)
	if err != nil {
		return 0, err
	}

	st := &Student{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		MajorCode:    input.MajorCode,
		Address:      input.Address,
		ProfileImage: ref,
	}

	if err := s.repo.Insert(ctx, st); err != nil {
		// The blob was written before the row; try to take it back out.
		if ref != "" {
			if derr := s.blobs.Delete(ref); derr != nil {
				s.logger.ErrorContext(ctx, "orphaned blob left after failed insert",
					"blob", ref, "error", derr)
			} else {
				s.logger.InfoContext(ctx, "cleaned up blob after failed insert", "blob", ref)
			}
		}
		return 0, err
	}

	s.producer.Publish(events.StudentCreated, st.ID, st.Email)
	return st.ID, nil
}

func (s *service) UpdateStudent(ctx context.Context, id int, input Input, upload *Upload) error {
	if err := s.validateInput(&input); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	newRef, err := s.storeUpload(ctx, upload)
	if err != nil {
		return err
	}

	st := &Student{
		ID:        id,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		MajorCode: input.MajorCode,
		Address:   input.Address,
	}

	if newRef != "" {
		st.ProfileImage = newRef
		err = s.repo.UpdateWithImage(ctx, st)
	} else {
		err = s.repo.Update(ctx, st)
	}
	if err != nil {
		if newRef != "" {
			// Row still references the old image; the fresh upload is orphaned.
			s.logger.ErrorContext(ctx, "orphaned blob left after failed update",
				"blob", newRef, "error", err)
		}
		return err
	}

	// Old image goes only after the row committed; a failed update must not
	// lose the blob its row still points at.
	if newRef != "" && current.ProfileImage != "" && current.ProfileImage != newRef {
		if derr := s.blobs.Delete(current.ProfileImage); derr != nil {
			s.logger.WarnContext(ctx, "failed to delete replaced blob",
				"blob", current.ProfileImage, "error", derr)
		}
	}

	s.producer.Publish(events.StudentUpdated, id, st.Email)
	return nil
}

func (s *service) DeleteStudent(ctx context.Context, id int) error {
	// The reference disappears with the row, so read it first.
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if current.ProfileImage != "" {
		if derr := s.blobs.Delete(current.ProfileImage); derr != nil {
			s.logger.WarnContext(ctx, "failed to delete blob of removed student",
				"blob", current.ProfileImage, "error", derr)
		}
	}

	s.producer.Publish(events.StudentDeleted, id, current.Email)
	return nil
}

func (s *service) GetStudentByID(ctx context.Context, id int) (*View, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.view(ctx, st)
	return &view, nil
}

func (s *service) ListStudents(ctx context.Context) ([]View, error) {
	students, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(students))
	for i := range students {
		views = append(views, s.view(ctx, &students[i]))
	}
	return views, nil
}

func (s *service) ListMajors(ctx context.Context) ([]Major, error) {
	return s.repo.ListMajors(ctx)
}

// view resolves the image reference against the blob store. A dangling or
// unreadable reference renders as "no image", never as an error.
func (s *service) view(ctx context.Context, st *Student) View {
	v := View{
		ID:               st.ID,
		FirstName:        st.FirstName,
		LastName:         st.LastName,
		Email:            st.Email,
		Major:            st.MajorCode,
		MajorDescription: st.MajorDescription,
		Address:          st.Address,
	}

	if st.ProfileImage == "" {
		return v
	}

	content, err := s.blobs.Read(st.ProfileImage)
	if err != nil {
		if !errors.Is(err, blob.ErrBlobNotFound) {
			s.logger.WarnContext(ctx, "failed to read profile image",
				"student_id", st.ID, "blob", st.ProfileImage, "error", err)
		}
		return v
	}

	encoded := base64.StdEncoding.EncodeToString(content)
	v.Profile = &encoded
	v.HasImage = true
	return v
}

// storeUpload validates and persists an uploaded image, returning its blob
// reference. A nil upload returns an empty reference.
func (s *service) storeUpload(ctx context.Context, upload *Upload) (string, error) {
	if upload == nil {
		return "", nil
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !allowedImageExts[ext] {
		return "", newValidationError("image", "Only image files are allowed")
	}
	if len(upload.Content) > MaxImageSize {
		return "", newValidationError("image", "Image must be 5MB or smaller")
	}

	name, err := s.blobs.Save(upload.Content, ext)
	if err != nil {
		return "", &StorageError{Op: "save", Err: err}
	}

	s.logger.DebugContext(ctx, "stored profile image", "blob", name)
	return name, nil
}

var inputFieldNames = map[string]string{
	"FirstName": "fname",
	"LastName":  "lname",
	"Email":     "email",
	"MajorCode": "major",
	"Address":   "address",
}

func (s *service) validateInput(input *Input) error {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.TrimSpace(input.Email)
	input.MajorCode = strings.TrimSpace(input.MajorCode)
	input.Address = strings.TrimSpace(input.Address)

	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return newValidationError("", "Invalid request")
	}

	first := verrs[0]
	field := inputFieldNames[first.StructField()]
	if first.Tag() == "required" {
		return newValidationError(field, "All fields except image are required")
	}
	return newValidationError(field, "Email must contain '@' and '.'")
}

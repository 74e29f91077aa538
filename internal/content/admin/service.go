// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package admin implements the management dashboard: subjects, lectures, user
accounts and media uploads.

Every write goes to the content backend and ends with a refresh of the shared
data cache, so the next read sees the change.

# Subject references

Lectures point at their subject by name. The service keeps that link intact:

  - SaveLecture rejects a subject name no subject carries.
  - DeleteSubject refuses while lectures still use the subject, unless forced.
  - RenameSubject rewrites the subject name on every referencing lecture.
*/
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/planx/internal/content/aitools"
	"github.com/taibuivan/planx/internal/content/catalog"
	"github.com/taibuivan/planx/internal/content/datacache"
	"github.com/taibuivan/planx/internal/gateway"
	"github.com/taibuivan/planx/internal/platform/apperr"
	"github.com/taibuivan/planx/internal/platform/sec"
	"github.com/taibuivan/planx/internal/platform/storage"
	"github.com/taibuivan/planx/internal/platform/validate"
	"github.com/taibuivan/planx/internal/users/account"
	"github.com/taibuivan/planx/pkg/pointer"
)

// writeConcurrency bounds parallel backend writes of one batch.
const writeConcurrency = 8

// # Collaborators

// Backend is the write side of the content backend.
type Backend interface {
	CreateSubject(context context.Context, name string) error
	UpdateSubject(context context.Context, subject catalog.Subject) error
	DeleteSubject(context context.Context, id string) error
	CreateLecture(context context.Context, lecture catalog.Lecture) error
	UpdateLecture(context context.Context, lecture catalog.Lecture) error
	DeleteLecture(context context.Context, id string) error
	UpdateUser(context context.Context, update gateway.UserUpdate) error
	DeleteUser(context context.Context, id string) error
}

// Cache is the shared data cache as seen by the dashboard.
type Cache interface {
	Snapshot() *datacache.Snapshot
	Refresh(context context.Context) error
}

// # Service Layer

// Service orchestrates the dashboard operations.
type Service struct {
	backend   Backend
	cache     Cache
	uploader  storage.Uploader
	generator aitools.Generator
	logger    *slog.Logger
}

/*
NewService constructs a new [Service].

Parameters:
  - uploader: object storage for media files, nil when uploads are not configured
  - generator: the AI collaborator used for thumbnails
*/
func NewService(backend Backend, cache Cache, uploader storage.Uploader, generator aitools.Generator, logger *slog.Logger) *Service {
	if generator == nil {
		generator = aitools.Disabled{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend:   backend,
		cache:     cache,
		uploader:  uploader,
		generator: generator,
		logger:    logger,
	}
}

// refresh reloads the cache after a write. A failed reload is logged; the
// write itself already succeeded.
func (service *Service) refresh(context context.Context) {
	if err := service.cache.Refresh(context); err != nil {
		service.logger.WarnContext(context, "cache_refresh_after_write_failed", slog.Any("error", err))
	}
}

// writeFailure rewords a backend failure for the dashboard. Other
// application errors pass through.
func writeFailure(message string, err error) error {
	if ae := apperr.As(err); ae != nil && ae.Code != "BAD_GATEWAY" {
		return err
	}
	return apperr.BadGateway(message, err)
}

// # Subjects

// AddSubject creates a subject with a non-blank, unused name.
func (service *Service) AddSubject(context context.Context, name string) error {
	name = strings.TrimSpace(name)
	if err := validate.New().Required(catalog.FieldSubjectName, name).MaxLen(catalog.FieldSubjectName, name, 200).Err(); err != nil {
		return err
	}
	if catalog.NameTaken(service.cache.Snapshot().Subjects, name, "") {
		return apperr.Conflict("A subject with this name already exists.")
	}

	if err := service.backend.CreateSubject(context, name); err != nil {
		return writeFailure("Failed to add subject.", err)
	}

	service.logger.InfoContext(context, "subject_created", slog.String("name", name))
	service.refresh(context)
	return nil
}

/*
DeleteSubject removes a subject.

Parameters:
  - force: delete even though lectures still reference the subject

Returns:
  - error: NotFound, Conflict while referenced, or BadGateway
*/
func (service *Service) DeleteSubject(context context.Context, id string, force bool) error {
	snapshot := service.cache.Snapshot()
	subject, ok := catalog.FindSubject(snapshot.Subjects, id)
	if !ok {
		return apperr.NotFound("Subject")
	}

	if referencing := catalog.ReferencingLectures(snapshot.Lectures, subject.Name); len(referencing) > 0 && !force {
		return apperr.Conflict(fmt.Sprintf("Subject is used by %d lecture(s). Move or delete them first.", len(referencing)))
	}

	if err := service.backend.DeleteSubject(context, id); err != nil {
		return writeFailure("Failed to delete subject.", err)
	}

	service.logger.InfoContext(context, "subject_deleted",
		slog.String("subject_id", id),
		slog.Bool("force", force),
	)
	service.refresh(context)
	return nil
}

// RenameSubject renames a subject and carries the new name over to every
// lecture that referenced the old one.
func (service *Service) RenameSubject(context context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if err := validate.New().Required(catalog.FieldSubjectName, name).MaxLen(catalog.FieldSubjectName, name, 200).Err(); err != nil {
		return err
	}

	snapshot := service.cache.Snapshot()
	subject, ok := catalog.FindSubject(snapshot.Subjects, id)
	if !ok {
		return apperr.NotFound("Subject")
	}
	if subject.Name == name {
		return nil
	}
	if catalog.NameTaken(snapshot.Subjects, name, subject.ID) {
		return apperr.Conflict("A subject with this name already exists.")
	}

	previous := subject.Name
	subject.Name = name
	if err := service.backend.UpdateSubject(context, subject); err != nil {
		return writeFailure("Failed to rename subject.", err)
	}
	defer service.refresh(context)

	referencing := catalog.ReferencingLectures(snapshot.Lectures, previous)
	group, groupContext := errgroup.WithContext(context)
	group.SetLimit(writeConcurrency)
	for _, lecture := range referencing {
		lecture.SubjectName = name
		group.Go(func() error {
			return service.backend.UpdateLecture(groupContext, lecture)
		})
	}
	if err := group.Wait(); err != nil {
		service.logger.ErrorContext(context, "subject_rename_cascade_failed",
			slog.String("subject_id", id),
			slog.Any("error", err),
		)
		return writeFailure("Subject renamed, but some lectures could not be updated.", err)
	}

	service.logger.InfoContext(context, "subject_renamed",
		slog.String("subject_id", id),
		slog.Int("lectures_updated", len(referencing)),
	)
	return nil
}

/*
MoveSubject swaps a subject with its neighbour and rewrites every ordering key
to match the new positions.

Description: One update per subject is sent concurrently, then the cache is
refreshed. An index or direction that would leave the list is a no-op and
sends nothing.

Returns:
  - []catalog.Subject: the list in its new order
  - error: BadGateway if any update failed
*/
func (service *Service) MoveSubject(context context.Context, index int, direction catalog.Direction) ([]catalog.Subject, error) {
	current := service.cache.Snapshot().Subjects
	moved, ok := catalog.MoveSubject(current, index, direction)
	if !ok {
		return current, nil
	}
	defer service.refresh(context)

	group, groupContext := errgroup.WithContext(context)
	group.SetLimit(writeConcurrency)
	for _, subject := range moved {
		group.Go(func() error {
			return service.backend.UpdateSubject(groupContext, subject)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, writeFailure("Failed to reorder subjects.", err)
	}

	service.logger.InfoContext(context, "subjects_reordered",
		slog.Int("index", index),
		slog.String("direction", string(direction)),
	)
	return moved, nil
}

// # Lectures

func validateLecture(lecture catalog.Lecture) error {
	return validate.New().
		Required(catalog.FieldTitle, lecture.Title).
		MaxLen(catalog.FieldTitle, lecture.Title, 500).
		Required(catalog.FieldSubjectName, lecture.SubjectName).
		Required(catalog.FieldVideoLink, lecture.VideoLink).
		URL(catalog.FieldVideoLink, lecture.VideoLink).
		Required(catalog.FieldPDFLink, lecture.PDFLink).
		URL(catalog.FieldPDFLink, lecture.PDFLink).
		Required(catalog.FieldImageURL, lecture.ImageURL).
		Err()
}

/*
SaveLecture creates a lecture when it has no id and updates it otherwise.

Returns:
  - bool: true when a lecture was created
  - error: ValidationError, Unprocessable for an unknown subject, NotFound, or BadGateway
*/
func (service *Service) SaveLecture(context context.Context, lecture catalog.Lecture) (bool, error) {
	lecture.Title = strings.TrimSpace(lecture.Title)
	if err := validateLecture(lecture); err != nil {
		return false, err
	}

	snapshot := service.cache.Snapshot()
	if !catalog.HasSubjectNamed(snapshot.Subjects, lecture.SubjectName) {
		return false, apperr.Unprocessable(fmt.Sprintf("Subject %q does not exist.", lecture.SubjectName))
	}

	created := lecture.ID == ""
	if created {
		if err := service.backend.CreateLecture(context, lecture); err != nil {
			return false, writeFailure("Failed to save lecture.", err)
		}
	} else {
		if _, ok := catalog.FindLecture(snapshot.Lectures, lecture.ID); !ok {
			return false, apperr.NotFound("Lecture")
		}
		if err := service.backend.UpdateLecture(context, lecture); err != nil {
			return false, writeFailure("Failed to save lecture.", err)
		}
	}

	service.logger.InfoContext(context, "lecture_saved",
		slog.String("lecture_id", lecture.ID),
		slog.String("title", lecture.Title),
		slog.Bool("created", created),
	)
	service.refresh(context)
	return created, nil
}

// DeleteLecture removes a lecture.
func (service *Service) DeleteLecture(context context.Context, id string) error {
	if _, ok := catalog.FindLecture(service.cache.Snapshot().Lectures, id); !ok {
		return apperr.NotFound("Lecture")
	}
	if err := service.backend.DeleteLecture(context, id); err != nil {
		return writeFailure("Failed to delete lecture.", err)
	}

	service.logger.InfoContext(context, "lecture_deleted", slog.String("lecture_id", id))
	service.refresh(context)
	return nil
}

// Orphans lists lectures whose subject name matches no subject.
func (service *Service) Orphans() []catalog.Lecture {
	snapshot := service.cache.Snapshot()
	return catalog.Orphans(snapshot.Subjects, snapshot.Lectures)
}

// # Users

// canManageUsers admits super administrators only. Plain administrators
// manage content, not accounts.
func canManageUsers(actor *account.Identity) error {
	if actor == nil {
		return apperr.Unauthorized("Authentication required")
	}
	if actor.Role != sec.RoleSuperAdmin {
		return apperr.Forbidden("You do not have permission to manage users.")
	}
	return nil
}

// Users lists every account without credential secrets.
func (service *Service) Users(actor *account.Identity) ([]account.User, error) {
	if err := canManageUsers(actor); err != nil {
		return nil, err
	}
	return service.cache.Snapshot().Users, nil
}

// target resolves an account the actor is about to manage.
func (service *Service) target(actor *account.Identity, userID string) (account.User, error) {
	if err := canManageUsers(actor); err != nil {
		return account.User{}, err
	}
	if actor.ID == userID {
		return account.User{}, apperr.Forbidden("You cannot manage your own account from the dashboard.")
	}
	for _, user := range service.cache.Snapshot().Users {
		if user.ID == userID {
			if !actor.Role.AtLeast(user.Role) {
				return account.User{}, apperr.Forbidden("You cannot manage an account with a higher role.")
			}
			return user, nil
		}
	}
	return account.User{}, apperr.NotFound("User")
}

// ChangeRole sets the role of another account. Nobody may grant a role above
// their own.
func (service *Service) ChangeRole(context context.Context, actor *account.Identity, userID string, role sec.UserRole) error {
	if err := validate.New().OneOf(account.FieldRole, string(role),
		string(sec.RoleUser), string(sec.RoleAdmin), string(sec.RoleSuperAdmin),
	).Err(); err != nil {
		return err
	}

	user, err := service.target(actor, userID)
	if err != nil {
		return err
	}
	if !actor.Role.AtLeast(role) {
		return apperr.Forbidden("You cannot grant a role higher than your own.")
	}
	if user.Role == role {
		return nil
	}

	if err := service.backend.UpdateUser(context, gateway.UserUpdate{ID: userID, Role: pointer.To(role)}); err != nil {
		return writeFailure("Failed to change user role.", err)
	}

	service.logger.InfoContext(context, "user_role_changed",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
		slog.String("actor_id", actor.ID),
	)
	service.refresh(context)
	return nil
}

// DeleteUser permanently removes another account.
func (service *Service) DeleteUser(context context.Context, actor *account.Identity, userID string) error {
	if _, err := service.target(actor, userID); err != nil {
		return err
	}
	if err := service.backend.DeleteUser(context, userID); err != nil {
		return writeFailure("Failed to delete user.", err)
	}

	service.logger.InfoContext(context, "user_deleted",
		slog.String("user_id", userID),
		slog.String("actor_id", actor.ID),
	)
	service.refresh(context)
	return nil
}

// # Media

// Upload stores a media file and returns its public URL.
func (service *Service) Upload(context context.Context, object storage.Object, progress storage.Progress) (string, error) {
	if service.uploader == nil {
		return "", apperr.ServiceUnavailable("Uploads are not configured.")
	}
	if strings.TrimSpace(object.Name) == "" {
		return "", apperr.ValidationError("Validation failed", apperr.FieldError{Field: "file", Message: "This field is required"})
	}
	return service.uploader.Upload(context, object, progress)
}

// GenerateThumbnail asks the AI collaborator for a cover image of a lecture title.
func (service *Service) GenerateThumbnail(context context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if err := validate.New().Required(catalog.FieldTitle, title).Err(); err != nil {
		return "", err
	}
	return service.generator.GenerateThumbnail(context, title)
}

package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/Sosyalles/user-service-api/internal/repository"
	"github.com/Sosyalles/user-service-api/internal/storage"
	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"github.com/Sosyalles/user-service-api/pkg/logger"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	DefaultMaxPhotoSize int64 = 5 << 20
	MaxPhotosPerUpload        = 5
	// PhotoRoute is the path stored photos are served under.
	PhotoRoute = "/uploads/profiles/"

	fileRemovalConcurrency = 4
)

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// PhotoUpload is one received file. Open is called once.
type PhotoUpload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

type PhotoSet struct {
	ProfilePhoto  *string  `json:"profilePhoto"`
	ProfilePhotos []string `json:"profilePhotos"`
}

type PhotoDeletion struct {
	DeletedPhotos []string `json:"deletedPhotos"`
	ProfilePhoto  *string  `json:"profilePhoto"`
	ProfilePhotos []string `json:"profilePhotos"`
}

type preparedPhoto struct {
	name        string
	contentType string
	data        []byte
}

func (s *ProfileService) PhotoURL(name string) string {
	return s.opts.PublicURL + PhotoRoute + name
}

// UploadProfilePhotos replaces the user's photo set with the uploaded files.
// The first upload becomes the primary photo.
func (s *ProfileService) UploadProfilePhotos(ctx context.Context, userID uint, uploads []PhotoUpload) (PhotoSet, error) {
	if len(uploads) == 0 {
		return PhotoSet{}, apperror.Validation("No files uploaded")
	}
	if len(uploads) > MaxPhotosPerUpload {
		return PhotoSet{}, apperror.Validation("A maximum of 5 photos can be uploaded")
	}
	if _, err := s.requireUser(ctx, userID); err != nil {
		return PhotoSet{}, err
	}

	prepared := make([]preparedPhoto, 0, len(uploads))
	for _, upload := range uploads {
		photo, err := s.preparePhoto(upload)
		if err != nil {
			return PhotoSet{}, err
		}
		prepared = append(prepared, photo)
	}

	saved := make([]string, 0, len(prepared))
	for _, photo := range prepared {
		if err := s.photos.Save(ctx, photo.name, bytes.NewReader(photo.data), int64(len(photo.data)), photo.contentType); err != nil {
			s.metrics.PhotoFile("store", "error")
			s.removeFiles(ctx, userID, saved)
			return PhotoSet{}, apperror.Internal("Failed to store photo", err)
		}
		s.metrics.PhotoFile("store", "ok")
		saved = append(saved, photo.name)
	}

	urls := make([]string, 0, len(saved))
	for _, name := range saved {
		urls = append(urls, s.PhotoURL(name))
	}
	primary := urls[0]

	var previous []string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		detail, err := tx.Details.FindOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		previous = append(previous, detail.ProfilePhotos...)

		if err := tx.Details.Update(ctx, userID, map[string]interface{}{
			"profile_photos": datatypes.JSONSlice[string](urls),
			"profile_photo":  primary,
		}); err != nil {
			return err
		}
		_, err = tx.Users.Update(ctx, userID, map[string]interface{}{"profile_photo": primary})
		return err
	})
	if err != nil {
		s.removeFiles(ctx, userID, saved)
		return PhotoSet{}, fmt.Errorf("save photo set: %w", err)
	}

	s.removeFiles(ctx, userID, s.ownedNames(staleURLs(previous, urls, nil)))

	logger.InfoWithUser(fmt.Sprint(userID), "profile_photos_uploaded", map[string]interface{}{
		"count": len(urls),
	})
	return PhotoSet{ProfilePhoto: &primary, ProfilePhotos: urls}, nil
}

func (s *ProfileService) preparePhoto(upload PhotoUpload) (preparedPhoto, error) {
	tooLarge := apperror.Validation(fmt.Sprintf("Each photo must be at most %s", sizeLabel(s.opts.MaxPhotoSize)))
	if upload.Size > s.opts.MaxPhotoSize {
		return preparedPhoto{}, tooLarge
	}

	rc, err := upload.Open()
	if err != nil {
		return preparedPhoto{}, apperror.Internal("Failed to read upload", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, s.opts.MaxPhotoSize+1))
	if err != nil {
		return preparedPhoto{}, apperror.Internal("Failed to read upload", err)
	}
	if int64(len(data)) > s.opts.MaxPhotoSize {
		return preparedPhoto{}, tooLarge
	}
	if len(data) == 0 {
		return preparedPhoto{}, apperror.Validation("Uploaded photo is empty")
	}

	detected := mimetype.Detect(data)
	contentType := strings.SplitN(detected.String(), ";", 2)[0]
	ext, ok := allowedPhotoTypes[contentType]
	if !ok {
		return preparedPhoto{}, apperror.Validation("Only JPEG, PNG and GIF images are allowed")
	}

	return preparedPhoto{
		name:        fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), ext),
		contentType: contentType,
		data:        data,
	}, nil
}

// DeleteProfilePhotos removes URLs from the user's set. Every URL must be in
// the current set or nothing changes. Files are removed after the commit.
func (s *ProfileService) DeleteProfilePhotos(ctx context.Context, userID uint, photoURLs []string) (PhotoDeletion, error) {
	requested := make([]string, 0, len(photoURLs))
	for _, url := range photoURLs {
		url = strings.TrimSpace(url)
		if url != "" && !slices.Contains(requested, url) {
			requested = append(requested, url)
		}
	}
	if len(requested) == 0 {
		return PhotoDeletion{}, apperror.Validation("photoUrls must be a non-empty array")
	}
	if _, err := s.requireUser(ctx, userID); err != nil {
		return PhotoDeletion{}, err
	}

	var result PhotoDeletion
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		detail, err := tx.Details.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		var current []string
		if detail != nil {
			current = detail.ProfilePhotos
		}
		for _, url := range requested {
			if !slices.Contains(current, url) {
				return apperror.Validation("Invalid photo URLs")
			}
		}

		remaining := make([]string, 0, len(current))
		for _, url := range current {
			if !slices.Contains(requested, url) {
				remaining = append(remaining, url)
			}
		}
		primary := detail.ProfilePhoto
		if primary != nil && slices.Contains(requested, *primary) {
			primary = firstOrNil(remaining)
		}

		if err := tx.Details.Update(ctx, userID, map[string]interface{}{
			"profile_photos": datatypes.JSONSlice[string](remaining),
			"profile_photo":  nullablePtr(primary),
		}); err != nil {
			return err
		}
		if _, err := tx.Users.Update(ctx, userID, map[string]interface{}{"profile_photo": nullablePtr(primary)}); err != nil {
			return err
		}

		result = PhotoDeletion{DeletedPhotos: requested, ProfilePhoto: primary, ProfilePhotos: remaining}
		return nil
	})
	if err != nil {
		if _, ok := apperror.As(err); ok {
			return PhotoDeletion{}, err
		}
		return PhotoDeletion{}, fmt.Errorf("delete photos: %w", err)
	}

	s.removeFiles(ctx, userID, s.ownedNames(requested))
	return result, nil
}

// removeFiles deletes stored files concurrently. Failures are logged and do
// not stop the remaining deletions.
func (s *ProfileService) removeFiles(ctx context.Context, userID uint, names []string) {
	if len(names) == 0 || s.photos == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(fileRemovalConcurrency)
	for _, name := range names {
		g.Go(func() error {
			if err := s.photos.Delete(ctx, name); err != nil {
				outcome := "error"
				if errors.Is(err, storage.ErrNotFound) {
					outcome = "missing"
				}
				s.metrics.PhotoFile("delete", outcome)
				logger.ErrorWithUser(fmt.Sprint(userID), "profile_photo_delete_failed", err, map[string]interface{}{
					"file": name,
				})
				return nil
			}
			s.metrics.PhotoFile("delete", "ok")
			return nil
		})
	}
	_ = g.Wait()
}

// ownedNames maps photo URLs to stored file names, skipping URLs that were
// not produced by this service.
func (s *ProfileService) ownedNames(urls []string) []string {
	prefix := s.opts.PublicURL + PhotoRoute
	names := make([]string, 0, len(urls))
	for _, url := range urls {
		if !strings.HasPrefix(url, prefix) {
			continue
		}
		name := strings.TrimPrefix(url, prefix)
		if storage.ValidateName(name) == nil {
			names = append(names, name)
		}
	}
	return names
}

// staleURLs returns the previous URLs that are neither in current nor the
// primary.
func staleURLs(previous, current []string, primary *string) []string {
	stale := make([]string, 0, len(previous))
	for _, url := range previous {
		if slices.Contains(current, url) || (primary != nil && *primary == url) {
			continue
		}
		stale = append(stale, url)
	}
	return stale
}

func sizeLabel(bytes int64) string {
	if bytes >= 1<<20 && bytes%(1<<20) == 0 {
		return fmt.Sprintf("%d MB", bytes>>20)
	}
	return fmt.Sprintf("%d bytes", bytes)
}

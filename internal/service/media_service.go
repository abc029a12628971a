package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/dto"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/media"
	"github.com/noah-isme/school-admin-api/pkg/storage"
)

type mediaStore interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type mediaSigner interface {
	Generate(owner, relPath string) (string, time.Time, error)
	Parse(token string) (owner, relPath string, expiresAt time.Time, err error)
}

// PhotoOwnerRepository reads and replaces the photo reference of a record.
type PhotoOwnerRepository interface {
	Photo(ctx context.Context, id string) (*string, error)
	UpdatePhoto(ctx context.Context, id string, photo *string) error
}

// MediaConfig bounds photo uploads.
type MediaConfig struct {
	MaxUploadBytes int64
	ThumbnailMax   int
	AllowedExts    []string
	URLPrefix      string
}

// MediaService stores photos and avatars and serves them through signed URLs.
type MediaService struct {
	store  mediaStore
	signer mediaSigner
	owners map[dto.MediaOwner]PhotoOwnerRepository
	cfg    MediaConfig
	logger *zap.Logger
}

// NewMediaService constructs a MediaService.
func NewMediaService(store mediaStore, signer mediaSigner, students, teachers PhotoOwnerRepository, cfg MediaConfig, logger *zap.Logger) *MediaService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 2 << 20
	}
	if cfg.ThumbnailMax <= 0 {
		cfg.ThumbnailMax = 500
	}
	if len(cfg.AllowedExts) == 0 {
		cfg.AllowedExts = media.DefaultAllowedExtensions
	}
	cfg.URLPrefix = strings.TrimRight(cfg.URLPrefix, "/")
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaService{
		store:  store,
		signer: signer,
		owners: map[dto.MediaOwner]PhotoOwnerRepository{
			dto.MediaOwnerStudent: students,
			dto.MediaOwnerTeacher: teachers,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// UploadPhoto validates an image, stores its thumbnail and makes it the
// owner's photo. The previous photo file is removed.
func (s *MediaService) UploadPhoto(ctx context.Context, owner dto.MediaOwner, ownerID, filename string, r io.Reader) (*dto.PhotoUploadResponse, error) {
	repo, err := s.ownerRepo(owner)
	if err != nil {
		return nil, err
	}
	if !media.Allowed(filename, s.cfg.AllowedExts) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("allowed file types: %s", strings.Join(s.cfg.AllowedExts, ", ")))
	}

	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxUploadBytes))
	}

	current, err := s.currentPhoto(ctx, repo, owner, ownerID)
	if err != nil {
		return nil, err
	}

	thumb, err := media.Thumbnail(data, s.cfg.ThumbnailMax)
	if err != nil {
		if errors.Is(err, media.ErrNotAnImage) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedMedia.Code, appErrors.ErrUnsupportedMedia.Status, "file is not a valid image")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to process image")
	}

	name, err := media.SafeName(filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to name upload")
	}
	return s.replacePhoto(ctx, repo, owner, ownerID, path.Join(string(owner), name), thumb, current)
}

// GenerateAvatar renders an initials avatar for the owner and stores it as
// their photo.
func (s *MediaService) GenerateAvatar(ctx context.Context, owner dto.MediaOwner, ownerID, displayName string) error {
	repo, err := s.ownerRepo(owner)
	if err != nil {
		return err
	}
	current, err := s.currentPhoto(ctx, repo, owner, ownerID)
	if err != nil {
		return err
	}
	if current != nil {
		return nil
	}
	img, err := media.Avatar(displayName, media.DefaultAvatarSize)
	if err != nil {
		return fmt.Errorf("render avatar: %w", err)
	}
	prefix, err := media.RandomString(8)
	if err != nil {
		return fmt.Errorf("name avatar: %w", err)
	}
	_, err = s.replacePhoto(ctx, repo, owner, ownerID, path.Join(string(owner), prefix+"_avatar.png"), img, nil)
	return err
}

// PhotoURL returns a signed URL for photo, or an empty string when there is
// nothing to link.
func (s *MediaService) PhotoURL(owner dto.MediaOwner, photo *string) string {
	if s == nil || photo == nil || *photo == "" {
		return ""
	}
	url, _, err := s.signedURL(owner, *photo)
	if err != nil {
		s.logger.Warn("failed to sign photo url", zap.String("photo", *photo), zap.Error(err))
		return ""
	}
	return url
}

// Open resolves a signed token to the stored file.
func (s *MediaService) Open(token string) (*os.File, string, error) {
	owner, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, "", appErrors.Clone(appErrors.ErrForbidden, "link expired")
		}
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid link")
	}
	if !strings.HasPrefix(relPath, owner+"/") {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid link")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrInvalidPath) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	contentType := mime.TypeByExtension(path.Ext(relPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return file, contentType, nil
}

// RemovePhoto deletes a stored photo file. Missing files are ignored.
func (s *MediaService) RemovePhoto(photo *string) {
	if s == nil || photo == nil || *photo == "" {
		return
	}
	if err := s.store.Delete(*photo); err != nil {
		s.logger.Warn("failed to remove photo", zap.String("photo", *photo), zap.Error(err))
	}
}

func (s *MediaService) replacePhoto(ctx context.Context, repo PhotoOwnerRepository, owner dto.MediaOwner, ownerID, relPath string, data []byte, previous *string) (*dto.PhotoUploadResponse, error) {
	if _, err := s.store.Save(relPath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
	}
	if err := repo.UpdatePhoto(ctx, ownerID, &relPath); err != nil {
		_ = s.store.Delete(relPath)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundFor(owner)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update photo")
	}
	if previous != nil && *previous != relPath {
		s.RemovePhoto(previous)
	}

	url, expiresAt, err := s.signedURL(owner, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign photo url")
	}
	s.logger.Info("photo stored", zap.String("owner", string(owner)), zap.String("owner_id", ownerID), zap.String("photo", relPath), zap.Int("bytes", len(data)))
	return &dto.PhotoUploadResponse{Photo: relPath, URL: url, ExpiresAt: expiresAt}, nil
}

func (s *MediaService) signedURL(owner dto.MediaOwner, relPath string) (string, time.Time, error) {
	token, expiresAt, err := s.signer.Generate(string(owner), relPath)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.cfg.URLPrefix + "/" + token, expiresAt, nil
}

func (s *MediaService) currentPhoto(ctx context.Context, repo PhotoOwnerRepository, owner dto.MediaOwner, ownerID string) (*string, error) {
	if !validID(ownerID) {
		return nil, notFoundFor(owner)
	}
	photo, err := repo.Photo(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundFor(owner)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load photo owner")
	}
	return photo, nil
}

func (s *MediaService) ownerRepo(owner dto.MediaOwner) (PhotoOwnerRepository, error) {
	repo, ok := s.owners[owner]
	if !ok || repo == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown media owner %q", owner))
	}
	return repo, nil
}

func notFoundFor(owner dto.MediaOwner) error {
	if owner == dto.MediaOwnerTeacher {
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return appErrors.Clone(appErrors.ErrStudentNotFound, "")
}


package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"voicefy/internal/config"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DriveStore загружает превью в папку Google Drive и открывает доступ по ссылке
type DriveStore struct {
	srv      *drive.Service
	folderID string
	logger   *zap.Logger
}

// NewDriveStore авторизуется сервисным аккаунтом из файла ключа
func NewDriveStore(ctx context.Context, cfg config.DriveConfig, logger *zap.Logger) (*DriveStore, error) {
	key, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ключа сервисного аккаунта: %w", err)
	}

	jwt, err := google.JWTConfigFromJSON(key, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора ключа сервисного аккаунта: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента Drive: %w", err)
	}

	return NewDriveStoreWithService(srv, cfg.FolderID, logger), nil
}

// NewDriveStoreWithService создает хранилище над готовым клиентом Drive
func NewDriveStoreWithService(srv *drive.Service, folderID string, logger *zap.Logger) *DriveStore {
	return &DriveStore{
		srv:      srv,
		folderID: folderID,
		logger:   logger,
	}
}

// UploadPreview создает файл в папке и выдает право чтения всем по ссылке
func (s *DriveStore) UploadPreview(ctx context.Context, externalID, filename, contentType string, data []byte) (string, error) {
	contentType = contentTypeOrDefault(contentType)
	file := &drive.File{
		Name:     objectKey(externalID, filename),
		MimeType: contentType,
	}
	if s.folderID != "" {
		file.Parents = []string{s.folderID}
	}

	created, err := s.srv.Files.Create(file).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		s.logger.Error("ошибка загрузки файла в Drive", zap.String("name", file.Name), zap.Error(err))
		return "", fmt.Errorf("ошибка загрузки файла в Drive: %w", err)
	}

	_, err = s.srv.Permissions.Create(created.Id, &drive.Permission{Type: "anyone", Role: "reader"}).
		Context(ctx).
		Do()
	if err != nil {
		s.logger.Error("ошибка открытия доступа к файлу", zap.String("file_id", created.Id), zap.Error(err))
		return "", fmt.Errorf("ошибка открытия доступа к файлу: %w", err)
	}

	fileURL := "https://drive.google.com/uc?export=download&id=" + created.Id
	s.logger.Info("превью загружено в Drive",
		zap.String("external_id", externalID),
		zap.String("file_id", created.Id))

	return fileURL, nil
}

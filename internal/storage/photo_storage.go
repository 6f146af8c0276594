package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// PhotoStorage отвечает за файловое хранилище снимков отходов.
type PhotoStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewPhotoStorage создаёт файловое хранилище.
func NewPhotoStorage(rootPath string, maxUploadMB int64) (*PhotoStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &PhotoStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// MaxUploadBytes возвращает лимит размера загружаемого файла.
func (s *PhotoStorage) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Save сохраняет снимок и возвращает относительный путь. Запись идёт во
// временный файл с последующим переименованием, чтобы в хранилище не
// оставались недописанные файлы.
func (s *PhotoStorage) Save(ctx context.Context, userID int64, ext string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	userDir := filepath.Join(s.rootPath, strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать каталог пользователя: %w", err)
	}

	fileName := uuid.NewString() + sanitizeExt(ext)
	targetPath := filepath.Join(userDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limitedReader := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", 0, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return filepath.Join(strconv.FormatInt(userID, 10), fileName), written, nil
}

// Delete удаляет файл из хранилища.
func (s *PhotoStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, relativePath)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// sanitizeExt оставляет от расширения только безопасный суффикс.
func sanitizeExt(ext string) string {
	ext = filepath.Ext("x" + ext)
	if ext == "" || len(ext) > 10 {
		return ".bin"
	}
	return ext
}

package localmedia

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/chadayu1004/smart-apartment-ai/internal/platform/ctxutil"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

// URLPrefix is where the HTTP router mounts the media root.
const URLPrefix = "/media"

// Store keeps uploaded files on local disk under Root and hands back
// URLs relative to URLPrefix.
type Store interface {
	Save(ctx context.Context, kind string, filename string, data []byte) (string, error)
	Root() string
}

type store struct {
	log  *logger.Logger
	root string
}

func New(log *logger.Logger, root string) Store {
	if strings.TrimSpace(root) == "" {
		root = "media"
	}
	return &store{log: log.With("service", "LocalMedia"), root: root}
}

func (s *store) Root() string { return s.root }

// Save writes data to <root>/<kind>/<prefix>_<uuid><ext> and returns
// /media/<kind>/<name>. The extension comes from filename, ".jpg" when absent.
func (s *store) Save(ctx context.Context, kind string, filename string, data []byte) (string, error) {
	_ = ctxutil.Default(ctx)
	kind = strings.Trim(filepath.ToSlash(strings.TrimSpace(kind)), "/")
	if kind == "" || strings.Contains(kind, "..") {
		return "", fmt.Errorf("localmedia: invalid kind %q", kind)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("localmedia: empty file")
	}

	dir := filepath.Join(s.root, filepath.FromSlash(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir media dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 8 {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%s_%s%s", filePrefix(kind), strings.ReplaceAll(uuid.NewString(), "-", ""), ext)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	s.log.Debug("Media file saved", "kind", kind, "name", name, "bytes", len(data))
	return URLPrefix + "/" + kind + "/" + name, nil
}

func filePrefix(kind string) string {
	if kind == "id_cards" {
		return "id"
	}
	base := filepath.Base(kind)
	return strings.TrimSuffix(base, "s")
}

package bridge

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/slack-go/slack/slackevents"
)

// collectFiles downloads message attachments into the repo's upload
// directory and returns their repo-relative paths. Individual files
// without a usable URL are skipped, not fatal.
func (b *Bridge) collectFiles(log *slog.Logger, files []slackevents.File) ([]string, error) {
	var paths []string

	for _, f := range files {
		name, url := b.resolveFile(log, f)
		if url == "" {
			log.Warn("no download URL for file", "file", f.ID)
			continue
		}

		path, err := b.downloadFile(url, name)
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", name, err)
		}

		log.Info("downloaded file", "name", name, "path", path)
		paths = append(paths, path)
	}

	return paths, nil
}

// resolveFile fills in tombstone file objects. Newer Slack events carry
// minimal file references that need a files.info round trip before the
// name and download URL are available.
func (b *Bridge) resolveFile(log *slog.Logger, f slackevents.File) (name, url string) {
	name = f.Name
	if name == "" {
		name = f.Title
	}
	url = f.URLPrivateDownload
	if url == "" {
		url = f.URLPrivate
	}

	if url != "" && name != "" {
		return name, url
	}

	if f.ID == "" {
		return name, url
	}

	full, _, _, err := b.api.GetFileInfo(f.ID, 0, 0)
	if err != nil {
		log.Warn("files.info lookup failed", "file", f.ID, "error", err)
		return name, url
	}

	if name == "" {
		name = full.Name
	}
	if name == "" {
		name = full.Title
	}
	if name == "" {
		name = "file_" + f.ID
	}
	if full.URLPrivateDownload != "" {
		url = full.URLPrivateDownload
	} else if full.URLPrivate != "" {
		url = full.URLPrivate
	}

	return name, url
}

// downloadFile writes one attachment under <repoDir>/<uploadDir> and
// returns the path relative to the repo, which is what the engine sees.
func (b *Bridge) downloadFile(url, filename string) (string, error) {
	dir := filepath.Join(b.cfg.RepoDir, b.cfg.UploadDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dest := filepath.Join(dir, filepath.Base(filename))

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := b.api.GetFile(url, out); err != nil {
		return "", err
	}

	rel, err := filepath.Rel(b.cfg.RepoDir, dest)
	if err != nil {
		return dest, nil
	}
	return rel, nil
}

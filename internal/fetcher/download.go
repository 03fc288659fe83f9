package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/open-edge-platform/boxctl/internal/utils/logger"
	"github.com/open-edge-platform/boxctl/internal/utils/network"
	"github.com/open-edge-platform/boxctl/internal/utils/security"
	"github.com/schollz/progressbar/v3"
)

// Downloader fetches url into dest, replacing any existing file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// HTTPDownloader streams a response body to disk through a progress bar. The body is
// written to dest+".part" and renamed into place only after the copy completes.
type HTTPDownloader struct {
	Client   *http.Client
	Progress io.Writer // progress bar output; nil disables the bar
}

// Download implements Downloader.
func (d *HTTPDownloader) Download(ctx context.Context, url, dest string) error {
	log := logger.Logger()

	client := d.Client
	if client == nil {
		client = network.NewSecureHTTPClient()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDownloadFailed, url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDownloadFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: bad status: %s", ErrDownloadFailed, url, resp.Status)
	}

	if resp.ContentLength > 0 {
		log.Infof("Downloading %s (%s)", filepath.Base(dest), humanize.IBytes(uint64(resp.ContentLength)))
	} else {
		log.Infof("Downloading %s", filepath.Base(dest))
	}

	part := dest + ".part"
	out, err := security.SafeOpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644, security.RejectSymlinks)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", part, err)
	}

	var w io.Writer = out
	var bar *progressbar.ProgressBar
	if d.Progress != nil {
		bar = newByteBar(resp.ContentLength, filepath.Base(dest), d.Progress)
		w = io.MultiWriter(out, bar)
	}

	start := time.Now()
	n, copyErr := io.Copy(w, resp.Body)
	closeErr := out.Close()
	if bar != nil {
		if err := bar.Finish(); err != nil {
			log.Debugf("failed to finish progress bar: %v", err)
		}
	}

	if copyErr != nil || closeErr != nil {
		if err := os.Remove(part); err != nil && !os.IsNotExist(err) {
			log.Warnf("Failed to remove partial download %s: %v", part, err)
		}
		if copyErr != nil {
			return fmt.Errorf("%w: %s: %v", ErrDownloadFailed, url, copyErr)
		}
		return fmt.Errorf("failed to write %s: %w", part, closeErr)
	}

	if err := os.Rename(part, dest); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", part, err)
	}
	log.Debugf("Downloaded %s in %s", humanize.IBytes(uint64(n)), time.Since(start).Round(time.Millisecond))
	return nil
}

func newByteBar(size int64, name string, w io.Writer) *progressbar.ProgressBar {
	if size <= 0 {
		size = -1
	}
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionSpinnerType(10),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

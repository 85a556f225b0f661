package cover

import (
	"bytes"
	"context"
	"math/rand"
	"net/url"
	"path"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/qtmuniao/bookwish/book"
	"github.com/qtmuniao/bookwish/log"
	"github.com/qtmuniao/bookwish/store"
)

// Result is the outcome of one downloader run. Local maps catalog IDs to
// file names inside the image directory; records whose download was
// exhausted land in Failed and render as placeholders downstream.
type Result struct {
	Local      map[string]string
	Reused     int
	Downloaded int
	Failed     []book.Record
}

// Downloader fetches cover images into an ImageStore, one record at a time.
// The image host rejects plain clients, so requests carry a Referer pointing
// at the book's detail page and a browser User-Agent.
type Downloader struct {
	client *resty.Client
	store  *store.ImageStore
	log    zerolog.Logger

	// MaxAttempts bounds tries per image. MinDelay and MaxDelay bound the
	// jitter slept before every attempt.
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration

	// Sleep and UserAgent are swappable so tests run without real delays or
	// network-backed user agent pools.
	Sleep     func(time.Duration)
	UserAgent func() string
}

func NewDownloader(st *store.ImageStore) *Downloader {
	client := resty.New()
	client.SetTimeout(15 * time.Second)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	client.SetHeader("Accept-Language", "zh-CN,zh;q=0.9,en-US;q=0.8,en;q=0.7")

	return &Downloader{
		client:      client,
		store:       st,
		log:         log.NewLogger("cover"),
		MaxAttempts: 3,
		MinDelay:    800 * time.Millisecond,
		MaxDelay:    1600 * time.Millisecond,
		Sleep:       time.Sleep,
		UserAgent:   browser.Computer,
	}
}

// Filename derives the local file name for a record's cover: catalog ID plus
// the remote extension with any query stripped, defaulting to .jpg.
func Filename(rec book.Record) string {
	ext := ".jpg"
	if rec.Cover != nil {
		if u, err := url.Parse(*rec.Cover); err == nil {
			if e := path.Ext(u.Path); e != "" {
				ext = e
			}
		}
	}
	return rec.BookID + ext
}

// Run attaches local covers to the records: files already in the image
// directory are reused, the rest are downloaded unless skipDownload is set.
// Download exhaustion is reported through Result.Failed rather than an
// error; a non-nil error means the image directory itself is unusable.
func (d *Downloader) Run(ctx context.Context, records []book.Record, skipDownload bool) (*Result, error) {
	if err := d.store.EnsureDir(); err != nil {
		return nil, errors.Wrap(err, "failed to create image directory")
	}

	res := &Result{Local: make(map[string]string)}

	for _, rec := range records {
		if name, ok := d.store.Find(rec.BookID); ok {
			res.Local[rec.BookID] = name
			res.Reused++
			continue
		}
		if skipDownload || rec.Cover == nil || *rec.Cover == "" {
			continue
		}

		name := Filename(rec)
		if err := d.download(ctx, rec, name); err != nil {
			d.log.Error().Err(err).Str("title", rec.Title).Str("url", *rec.Cover).Msg("Cover download failed")
			res.Failed = append(res.Failed, rec)
			continue
		}
		res.Local[rec.BookID] = name
		res.Downloaded++
	}

	return res, nil
}

func (d *Downloader) download(ctx context.Context, rec book.Record, name string) error {
	var lastErr error
	for attempt := 1; attempt <= d.MaxAttempts; attempt++ {
		// Slow down to mimic human requests, even before the first attempt.
		d.Sleep(d.jitter())

		req := d.client.R().
			SetContext(ctx).
			SetHeader("User-Agent", d.UserAgent())
		if rec.URL != "" {
			req.SetHeader("Referer", rec.URL)
		}

		resp, err := req.Get(*rec.Cover)
		if err != nil {
			lastErr = err
			d.log.Debug().Err(err).Int("attempt", attempt).Str("title", rec.Title).Msg("Retrying cover download")
			continue
		}
		if !resp.IsSuccess() {
			lastErr = errors.Errorf("unexpected status %s", resp.Status())
			continue
		}

		if err := d.store.Store(name, bytes.NewReader(resp.Body())); err != nil {
			return errors.Wrap(err, "failed to write cover file")
		}
		return nil
	}
	return errors.Wrapf(lastErr, "giving up after %d attempts", d.MaxAttempts)
}

func (d *Downloader) jitter() time.Duration {
	if d.MaxDelay <= d.MinDelay {
		return d.MinDelay
	}
	return d.MinDelay + time.Duration(rand.Int63n(int64(d.MaxDelay-d.MinDelay)))
}

// Package drive implements the remote document source backed by the Google
// Drive API.
package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	vecshelf "github.com/vecshelf/vecshelf"
)

// Compile-time interface check.
var _ vecshelf.RemoteSource = (*Source)(nil)

// defaultSegmentSize is the byte range requested per download round trip.
const defaultSegmentSize = int64(1 << 20)

// Source fetches documents from Google Drive. The service handle carries
// the authorization; callers never see raw credentials.
type Source struct {
	service     *drive.Service
	segmentSize int64
}

// New creates a Source authorized by a credentials file with read-only
// drive scope.
func New(ctx context.Context, credentialsFile string) (*Source, error) {
	return NewWithOptions(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveReadonlyScope))
}

// NewWithOptions creates a Source with full control over client options,
// which lets tests point the service at a local endpoint.
func NewWithOptions(ctx context.Context, opts ...option.ClientOption) (*Source, error) {
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive: %w", err)
	}
	return &Source{service: service, segmentSize: defaultSegmentSize}, nil
}

// ListChildren lists the files directly under a folder, following result
// pages to the end.
func (s *Source) ListChildren(ctx context.Context, folderID string) ([]vecshelf.RemoteFile, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)

	var files []vecshelf.RemoteFile
	pageToken := ""
	for {
		call := s.service.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType)").
			PageSize(1000).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, wrapErr(err)
		}
		for _, f := range page.Files {
			files = append(files, vecshelf.RemoteFile{
				ID:       f.Id,
				Name:     f.Name,
				MimeType: f.MimeType,
			})
		}
		if page.NextPageToken == "" {
			return files, nil
		}
		pageToken = page.NextPageToken
	}
}

// Download fetches a binary file in segments, appending each range into a
// buffer until the service signals the end of the stream.
func (s *Source) Download(ctx context.Context, id string) ([]byte, error) {
	var buf bytes.Buffer
	for offset := int64(0); ; {
		call := s.service.Files.Get(id).SupportsAllDrives(true).Context(ctx)
		call.Header().Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+s.segmentSize-1))
		resp, err := call.Download()
		if err != nil {
			// Requesting past the end means the previous segment was the
			// last one.
			if statusOf(err) == http.StatusRequestedRangeNotSatisfiable && offset > 0 {
				return buf.Bytes(), nil
			}
			return nil, wrapErr(err)
		}
		n, err := io.Copy(&buf, resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("drive: read segment at %d: %w", offset, err)
		}
		offset += n

		// A full response, or a short segment, ends the stream.
		if resp.StatusCode != http.StatusPartialContent || n < s.segmentSize {
			return buf.Bytes(), nil
		}
	}
}

// Export converts a cloud-native document server-side and fetches the
// result. The export endpoint does not support ranged reads, so the stream
// is consumed in one pass.
func (s *Source) Export(ctx context.Context, id, targetMime string) ([]byte, error) {
	resp, err := s.service.Files.Export(id, targetMime).Context(ctx).Download()
	if err != nil {
		return nil, wrapErr(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("drive: read export: %w", err)
	}
	return data, nil
}

func statusOf(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

func wrapErr(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &vecshelf.ErrHTTP{Status: apiErr.Code, Body: apiErr.Message}
	}
	return fmt.Errorf("drive: %w", err)
}

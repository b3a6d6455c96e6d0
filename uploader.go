package nymarkable

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-nymarkable/internal/hints"
)

// uploadField is the form field the tablet's web interface reads.
const uploadField = "file"

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// uploader posts documents to the e-reader's USB web interface.
type uploader struct {
	client *http.Client
	log    *zap.Logger
}

// Upload sends documentPath to http://<address>/upload as remoteFilename.
// There is no retry. Transport failures return ErrUpload; the response
// status is logged but not checked.
func (u *uploader) Upload(ctx context.Context, documentPath, address, remoteFilename string) error {
	base := deviceBaseURL(address)

	body, contentType, err := multipartPDF(documentPath, remoteFilename)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/upload", body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Origin", base)
	req.Header.Set("Referer", base+"/")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Connection", "keep-alive")

	u.log.Info("uploading", zap.String("url", req.URL.String()), zap.String("filename", remoteFilename))

	resp, err := u.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v%s", ErrUpload, err, hints.ForDeviceUnreachable(strings.TrimPrefix(base, "http://")))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	u.log.Info("upload finished", zap.Int("status", resp.StatusCode))
	return nil
}

// multipartPDF builds a form with a single PDF file part.
func multipartPDF(path, filename string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is the document we just assembled
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		uploadField, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", "application/pdf")

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func deviceBaseURL(address string) string {
	return DeviceConfig{Address: address}.BaseURL()
}

package apiclient

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"

	"github.com/carebridge-dev/carebridge/shared/api"
	"github.com/carebridge-dev/carebridge/shared/domain"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// progressReader reports how much of the file has been streamed. It stops at
// 99 so that 100 is only reached once the server has answered.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	last     int
	progress domain.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.progress != nil && p.total > 0 {
		p.read += int64(n)
		percent := int(p.read * 100 / p.total)
		if percent > 99 {
			percent = 99
		}
		if percent != p.last {
			p.last = percent
			p.progress(percent)
		}
	}
	return n, err
}

// postMultipartFile streams fields and file as multipart/form-data.
func (c *APIClient) postMultipartFile(ctx context.Context, op, path string, fields map[string]string, file *domain.PendingFile, progress domain.ProgressFunc) (*http.Response, error) {
	if file == nil || file.Data == nil {
		return nil, fmt.Errorf("%s: no file data", op)
	}
	pipeReader, pipeWriter := io.Pipe()
	writer := multipart.NewWriter(pipeWriter)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer pipeWriter.Close()
		defer writer.Close()

		for name, value := range fields {
			if err := writer.WriteField(name, value); err != nil {
				pipeWriter.CloseWithError(err)
				return
			}
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Filename)))
		if file.MimeType != "" {
			h.Set("Content-Type", file.MimeType)
		}
		part, err := writer.CreatePart(h)
		if err != nil {
			pipeWriter.CloseWithError(err)
			return
		}
		src := &progressReader{r: file.Data, total: file.SizeBytes, last: -1, progress: progress}
		if _, err := io.Copy(part, src); err != nil {
			pipeWriter.CloseWithError(err)
			return
		}
	}()

	resp, err := c.do(ctx, op, http.MethodPost, path, pipeReader, writer.FormDataContentType())
	if err != nil {
		pipeReader.CloseWithError(err)
		wg.Wait()
		return nil, err
	}
	return resp, nil
}

func (c *APIClient) UploadAttachment(ctx context.Context, upload domain.AttachmentUpload, progress domain.ProgressFunc) (domain.Message, error) {
	const op = "upload attachment"
	path := fmt.Sprintf("/v1/chats/%d/attachments", upload.ConversationId)
	fields := map[string]string{}
	if upload.ClientRef != "" {
		fields["client_ref"] = upload.ClientRef
	}
	resp, err := c.postMultipartFile(ctx, op, path, fields, upload.File, progress)
	if err != nil {
		return domain.Message{}, err
	}
	defer resp.Body.Close()

	var dto api.MessageDTO
	if err := decodeResponse(op, resp, &dto); err != nil {
		return domain.Message{}, err
	}
	m := messageFromDTO(dto)
	if m.ConversationId == 0 {
		m.ConversationId = upload.ConversationId
	}
	if progress != nil {
		progress(100)
	}
	return m, nil
}

func (c *APIClient) UploadDocument(ctx context.Context, requestId domain.ClinicalRequestId, file *domain.PendingFile, progress domain.ProgressFunc) error {
	const op = "upload document"
	path := fmt.Sprintf("/v1/clinical-requests/%d/documents", requestId)
	resp, err := c.postMultipartFile(ctx, op, path, nil, file, progress)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := decodeResponse(op, resp, nil); err != nil {
		return err
	}
	if progress != nil {
		progress(100)
	}
	return nil
}

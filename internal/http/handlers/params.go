package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
)

// maxUploadBytes bounds multipart file reads.
const maxUploadBytes = 10 << 20

func uintParam(c *gin.Context, name string) (uint, error) {
	raw := strings.TrimSpace(c.Param(name))
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, apierr.Wrap(apierr.ErrInvalidArgument, "%s must be a positive integer", name)
	}
	return uint(v), nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxUploadBytes {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "file is larger than %d MB", maxUploadBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "file is larger than %d MB", maxUploadBytes>>20)
	}
	return data, nil
}

// optionalUpload returns nil data when field is absent.
func optionalUpload(c *gin.Context, field string) (string, []byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil, nil
	}
	data, err := readUpload(fh)
	if err != nil {
		return "", nil, err
	}
	return fh.Filename, data, nil
}

package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/vientianelabs/khumsue-backend/api/responses"
	mediasvc "github.com/vientianelabs/khumsue-backend/internal/media"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

// multipart parse ceiling; the per-file limit is enforced by the media service.
const maxUploadMemory = 10 << 20

// UploadMedia accepts a multipart image and returns its public URL. The
// "kind" form field picks the bucket folder: product photos or payment slips.
func UploadMedia(svc *mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart payload"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field required"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read upload"))
			return
		}

		contentType := header.Header.Get("Content-Type")
		kind := mediasvc.Kind(strings.TrimSpace(r.FormValue("kind")))
		if kind == "" {
			kind = mediasvc.KindProof
		}

		url, err := svc.Upload(r.Context(), mediasvc.UploadInput{
			Kind:        kind,
			ContentType: contentType,
			Data:        data,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"url": url})
	}
}

package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zip"
	"github.com/rm-hull/photo-uniqualizer/internal/batch"
	"github.com/rm-hull/photo-uniqualizer/internal/engine"
	"github.com/rm-hull/photo-uniqualizer/internal/photo"
	"go.uber.org/zap"
)

// multipart framing on top of the photo itself
const formOverhead = 1 << 20

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id"`
}

type autoParamsResponse struct {
	Seed   uint64              `json:"seed"`
	Count  int                 `json:"count"`
	Params engine.ParameterSet `json:"params"`
}

type assetsResponse struct {
	Count int      `json:"count"`
	Names []string `json:"names"`
}

func (s *Server) uniqualize(c *gin.Context) {
	maxInput := s.engine.Config().MaxInputBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(maxInput)+formOverhead)

	data, err := readPhoto(c, maxInput)
	if err != nil {
		s.fail(c, err)
		return
	}

	req, err := parseRequest(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	report, err := s.runner.Run(c.Request.Context(), data, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(report.Outputs) == 0 {
		s.fail(c, report.FirstError())
		return
	}

	c.Header("X-Uniqualize-Seed", strconv.FormatUint(report.Seed, 10))
	c.Header("X-Uniqualize-Failures", strconv.Itoa(len(report.Failures)))

	if len(report.Outputs) == 1 && req.Params.Count == 1 {
		out := report.Outputs[0]
		c.Header("X-Uniqualize-Stages", strings.Join(out.Result.Stages, ","))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.Name))
		c.Data(http.StatusOK, photo.ContentType(out.Result.Format), out.Result.Data)
		return
	}

	bundle, err := zipOutputs(report.Outputs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="uniqualized.zip"`)
	c.Data(http.StatusOK, "application/zip", bundle)
}

func readPhoto(c *gin.Context, maxInput int) ([]byte, error) {
	header, err := c.FormFile("photo")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, photo.ErrInputTooLarge
		}
		return nil, &engine.Error{Kind: engine.ErrInvalidParameters, Op: "upload", Err: fmt.Errorf("missing photo: %w", err)}
	}
	if header.Size > int64(maxInput) {
		return nil, photo.ErrInputTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return io.ReadAll(f)
}

func parseRequest(c *gin.Context) (batch.Request, error) {
	var req batch.Request
	var errs []error

	flag := func(name string) bool {
		v := c.PostForm(name)
		if v == "" {
			return false
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return b
	}
	number := func(name string, fallback int) int {
		v := c.PostForm(name)
		if v == "" {
			return fallback
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return n
	}

	mode, err := batch.ParseMode(c.PostForm("mode"))
	if err != nil {
		errs = append(errs, err)
	}
	req.Mode = mode

	if v := c.PostForm("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("seed: %w", err))
		}
		req.Seed = &seed
	}

	req.Params = engine.ParameterSet{
		Noise:      flag("noise"),
		Stripes:    flag("stripes"),
		Smiles:     flag("smiles"),
		Background: flag("background"),
		BlurRadius: number("blur_radius", 0),
		Count:      number("count", batch.DefaultCount(mode, req.Seed)),
	}

	if len(errs) > 0 {
		return req, &engine.Error{Kind: engine.ErrInvalidParameters, Op: "parse form", Err: errors.Join(errs...)}
	}
	return req, nil
}

func zipOutputs(outputs []batch.Output) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, out := range outputs {
		// images are already compressed
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     out.Name,
			Method:   zip.Store,
			Modified: time.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to bundle: %w", out.Name, err)
		}
		if _, err := w.Write(out.Result.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s to bundle: %w", out.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish bundle: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Server) autoParams(c *gin.Context) {
	seed := engine.NewSeed()
	if v := c.Query("seed"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			s.fail(c, &engine.Error{Kind: engine.ErrInvalidParameters, Op: "auto params", Err: err})
			return
		}
		seed = parsed
	}

	rng := engine.NewRandomSource(seed)
	c.JSON(http.StatusOK, autoParamsResponse{
		Seed:   seed,
		Count:  batch.AutoCount(rng),
		Params: batch.AutoParams(rng),
	})
}

func (s *Server) listAssets(c *gin.Context) {
	store := s.engine.Assets()
	c.JSON(http.StatusOK, assetsResponse{Count: store.Count(), Names: store.Names()})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.runner.Stats().Snapshot())
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	id := c.GetString("request_id")

	s.logger.Warn("request failed",
		zap.String("request_id", id),
		zap.Int("status", status),
		zap.Error(err))

	resp := errorResponse{Error: err.Error(), RequestID: id}
	if kind := engine.KindOf(err); kind != nil {
		resp.Kind = kind.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, photo.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, engine.ErrInvalidParameters), errors.Is(err, engine.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrResourceLimitExceeded),
		errors.Is(err, engine.ErrEncodeTooLarge),
		errors.Is(err, engine.ErrAssetNotFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

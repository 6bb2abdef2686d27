// Package api exposes the liquidation service over HTTP.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/lucasmmg12/liquidaciones-osde/internal/export"
	"github.com/lucasmmg12/liquidaciones-osde/internal/liquidacion"
	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
	"github.com/lucasmmg12/liquidaciones-osde/internal/sheet"
)

// Handler serves the liquidation endpoints.
type Handler struct {
	svc       *liquidacion.Service
	visitOpts sheet.Options
}

func NewHandler(svc *liquidacion.Service, visitOpts sheet.Options) *Handler {
	return &Handler{svc: svc, visitOpts: visitOpts}
}

// RegisterRoutes registers the endpoints on the provided route group.
//
//	POST   /api/v1/liquidaciones         - Liquidate an uploaded visit sheet
//	GET    /api/v1/liquidaciones         - Recorded runs of a period
//	POST   /api/v1/faltantes/resolver    - Resolve a missing code
//	POST   /api/v1/valores/copiar        - Copy prices to a later period
//	POST   /api/v1/nomenclador           - Import a nomenclador sheet
//	GET    /api/v1/feriados              - Effective holiday calendar
//	POST   /api/v1/feriados              - Add a holiday
//	DELETE /api/v1/feriados/:fecha       - Remove a holiday
//	POST   /api/v1/feriados/restaurar    - Restore the built-in calendar
//	GET    /api/v1/numero                - Liquidation number of a period
//	PUT    /api/v1/numero                - Override the liquidation number
//	PUT    /api/v1/instrumentadores      - Add or update a staff record
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/liquidaciones", h.Liquidate)
	g.GET("/liquidaciones", h.History)
	g.POST("/faltantes/resolver", h.Resolve)
	g.POST("/valores/copiar", h.CopyPrices)
	g.POST("/nomenclador", h.ImportReference)
	g.GET("/feriados", h.ListHolidays)
	g.POST("/feriados", h.AddHoliday)
	g.DELETE("/feriados/:fecha", h.RemoveHoliday)
	g.POST("/feriados/restaurar", h.RestoreHolidays)
	g.GET("/numero", h.SequenceNumber)
	g.PUT("/numero", h.SetSequenceNumber)
	g.PUT("/instrumentadores", h.SaveStaff)
}

// periodRequest is the period as sent by clients.
type periodRequest struct {
	Month  int    `json:"mes" form:"mes" query:"mes"`
	Year   int    `json:"anio" form:"anio" query:"anio"`
	Payer  string `json:"obra_social" form:"obra_social" query:"obra_social"`
	Module string `json:"modulo" form:"modulo" query:"modulo"`
}

func (p periodRequest) period() model.Period {
	return model.NewPeriod(p.Month, p.Year, p.Payer, p.Module)
}

type liquidationResponse struct {
	Run     *model.BatchRun      `json:"run,omitempty"`
	Numero  int                  `json:"numero_liquidacion"`
	Stats   liquidacion.Stats    `json:"estadisticas"`
	Detail  []export.DetailRow   `json:"detalle"`
	Summary []export.SummaryLine `json:"resumen"`
	Missing []model.MissingLine  `json:"faltantes"`
	Totals  model.Totals         `json:"totales"`
	Reports []export.StaffReport `json:"reportes,omitempty"`
}

// Liquidate handles POST /api/v1/liquidaciones. The workbook comes in the
// multipart field "archivo"; dry_run and reportes are optional booleans.
func (h *Handler) Liquidate(c echo.Context) error {
	var pr periodRequest
	if err := c.Bind(&pr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid period")
	}
	p := pr.period()
	if err := p.Validate(); err != nil {
		return httpError(err)
	}

	data, name, err := formFile(c, "archivo")
	if err != nil {
		return err
	}
	sh, err := sheet.Read(bytes.NewReader(data), name, h.visitOpts)
	if err != nil {
		return httpError(err)
	}
	sum, err := normalize.ReaderHash(bytes.NewReader(data))
	if err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	res, err := h.svc.Process(ctx, liquidacion.Input{
		Sheet:        sh,
		SourceName:   name,
		SourceSHA256: sum,
		Period:       p,
		DryRun:       formBool(c, "dry_run"),
	})
	if err != nil {
		return httpError(err)
	}

	out := liquidationResponse{
		Run:     res.Run,
		Stats:   res.Stats,
		Detail:  export.Detail(res.Rated),
		Summary: export.Summary(res.Summary, res.Totals),
		Missing: res.Missing,
		Totals:  res.Totals,
	}
	if out.Numero, err = h.svc.SequenceNumber(ctx, p); err != nil {
		return httpError(err)
	}
	if formBool(c, "reportes") {
		if out.Reports, err = h.svc.StaffReports(ctx, res, p); err != nil {
			return httpError(err)
		}
	}
	return c.JSON(http.StatusOK, out)
}

// History handles GET /api/v1/liquidaciones?mes=&anio=.
func (h *Handler) History(c echo.Context) error {
	var pr periodRequest
	if err := c.Bind(&pr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid period")
	}
	runs, err := h.svc.History(c.Request().Context(), pr.period())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, runs)
}

type resolveRequest struct {
	periodRequest
	Code        string          `json:"codigo"`
	Description string          `json:"descripcion"`
	Complexity  string          `json:"complejidad"`
	UnitPrice   decimal.Decimal `json:"valor"`
}

// Resolve handles POST /api/v1/faltantes/resolver.
func (h *Handler) Resolve(c echo.Context) error {
	var req resolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.Resolve(c.Request().Context(), liquidacion.Resolution{
		Code:        req.Code,
		Description: req.Description,
		Complexity:  req.Complexity,
		Period:      req.period(),
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

type copyRequest struct {
	From       periodRequest   `json:"desde"`
	To         periodRequest   `json:"hasta"`
	Percentage decimal.Decimal `json:"porcentaje"`
}

// CopyPrices handles POST /api/v1/valores/copiar.
func (h *Handler) CopyPrices(c echo.Context) error {
	var req copyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	from := req.From.period()
	to := req.To.period()
	if req.To.Payer == "" && req.To.Module == "" {
		to.Payer, to.Module = from.Payer, from.Module
	}
	n, err := h.svc.CopyPeriodWithIncrease(c.Request().Context(), from, to, req.Percentage)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"valores": n, "desde": from, "hasta": to})
}

// ImportReference handles POST /api/v1/nomenclador (multipart "archivo").
func (h *Handler) ImportReference(c echo.Context) error {
	var pr periodRequest
	if err := c.Bind(&pr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid period")
	}
	data, name, err := formFile(c, "archivo")
	if err != nil {
		return err
	}
	sh, err := sheet.Read(bytes.NewReader(data), name, sheet.ReferenceOptions())
	if err != nil {
		return httpError(err)
	}
	res, err := h.svc.ImportReference(c.Request().Context(), sh, pr.period())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListHolidays handles GET /api/v1/feriados.
func (h *Handler) ListHolidays(c echo.Context) error {
	hs, err := h.svc.Holidays(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, hs)
}

// AddHoliday handles POST /api/v1/feriados with {"fecha": "2025-12-08", "descripcion": "..."}.
func (h *Handler) AddHoliday(c echo.Context) error {
	var hol model.Holiday
	if err := c.Bind(&hol); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.AddHoliday(c.Request().Context(), hol); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, hol)
}

// RemoveHoliday handles DELETE /api/v1/feriados/:fecha. The date may be ISO or dd-mm-yyyy.
func (h *Handler) RemoveHoliday(c echo.Context) error {
	d, ok := normalize.ParseDate(c.Param("fecha"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid date %q", c.Param("fecha")))
	}
	removed, err := h.svc.RemoveHoliday(c.Request().Context(), d)
	if err != nil {
		return httpError(err)
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "holiday not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// RestoreHolidays handles POST /api/v1/feriados/restaurar.
func (h *Handler) RestoreHolidays(c echo.Context) error {
	n, err := h.svc.RestoreDefaultHolidays(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"feriados": n})
}

// SequenceNumber handles GET /api/v1/numero?mes=&anio=.
func (h *Handler) SequenceNumber(c echo.Context) error {
	var pr periodRequest
	if err := c.Bind(&pr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid period")
	}
	p := pr.period()
	n, err := h.svc.SequenceNumber(c.Request().Context(), p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"periodo": p, "numero": n})
}

type sequenceRequest struct {
	periodRequest
	Number int `json:"numero"`
}

// SetSequenceNumber handles PUT /api/v1/numero.
func (h *Handler) SetSequenceNumber(c echo.Context) error {
	var req sequenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.SetSequenceNumber(c.Request().Context(), req.period(), req.Number); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"periodo": req.period(), "numero": req.Number})
}

// SaveStaff handles PUT /api/v1/instrumentadores.
func (h *Handler) SaveStaff(c echo.Context) error {
	var m model.StaffMember
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.SaveStaff(c.Request().Context(), m); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

// httpError maps service errors onto status codes.
func httpError(err error) error {
	switch {
	case model.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case model.IsInputFormat(err):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrDuplicateHoliday):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}

func formFile(c echo.Context, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("multipart field %q is required", field))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "cannot open upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "cannot read upload")
	}
	return data, fh.Filename, nil
}

func formBool(c echo.Context, name string) bool {
	v := c.FormValue(name)
	if v == "" {
		v = c.QueryParam(name)
	}
	b, _ := strconv.ParseBool(v)
	return b
}

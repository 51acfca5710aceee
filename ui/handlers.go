package ui

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"molview/domain/core"
	"molview/domain/molecule"
	"molview/internal/dataset"
)

// acceptedMimeTypes is advisory: mismatches are logged, not rejected,
// because browsers are unreliable about chemistry formats.
var acceptedMimeTypes = map[string]bool{
	"text/csv":                true,
	"application/csv":         true,
	"text/plain":              true,
	"chemical/x-mdl-sdfile":   true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/octet-stream":                                          true,
}

func (s *Server) handleIndex(c *gin.Context) {
	st := currentSession(c)
	s.renderTemplate(c, "index.html", gin.H{
		"Dataset":    datasetSummary(st.Dataset),
		"HasDataset": st.Dataset != nil,
		"MaxUploadMB": s.cfg.Upload.MaxFileSizeMB,
	})
}

// handleFileUpload ingests a chemical file and replaces the session's
// dataset.
func (s *Server) handleFileUpload(c *gin.Context) {
	log.Printf("[handleFileUpload] Starting file upload process")
	st := currentSession(c)

	file, header, err := c.Request.FormFile("dataset")
	if err != nil {
		log.Printf("[handleFileUpload] FAILED - No file uploaded: %v", err)
		s.uploadError(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size > s.cfg.Upload.MaxFileSizeBytes() {
		log.Printf("[handleFileUpload] FAILED - File too large: %d bytes", header.Size)
		s.uploadError(c, http.StatusBadRequest,
			fmt.Sprintf("File size (%.1f MB) exceeds the %d MB limit",
				float64(header.Size)/(1024*1024), s.cfg.Upload.MaxFileSizeMB))
		return
	}

	filename := header.Filename
	hasValidExtension := false
	for _, ext := range molecule.SupportedExtensions {
		if strings.HasSuffix(strings.ToLower(filename), ext) {
			hasValidExtension = true
			break
		}
	}
	if !hasValidExtension {
		log.Printf("[handleFileUpload] FAILED - Invalid file extension: %s", filename)
		s.uploadError(c, http.StatusBadRequest,
			fmt.Sprintf("Only %s files are allowed", strings.Join(molecule.SupportedExtensions, ", ")))
		return
	}

	if ct := header.Header.Get("Content-Type"); ct != "" && !acceptedMimeTypes[ct] {
		log.Printf("[handleFileUpload] WARNING - Unexpected MIME type: %s for file: %s", ct, filename)
	}

	ds, err := s.loader.Load(filename, header.Size, file)
	if err != nil {
		log.Printf("[handleFileUpload] FAILED - Load error for %s: %v", filename, err)
		status := http.StatusInternalServerError
		if core.IsIntakeError(err) {
			status = http.StatusBadRequest
		}
		s.uploadError(c, status, err.Error())
		return
	}

	s.sessions.SetDataset(st.ID, ds)
	st.Dataset = ds
	st.SelectedIndex = 0

	if s.catalog != nil {
		if err := s.catalog.Record(c.Request.Context(), ds); err != nil {
			log.Printf("[handleFileUpload] WARNING - Failed to record upload in catalog: %v", err)
		}
	}

	log.Printf("[handleFileUpload] Loaded %s: %d records, %d skipped",
		filename, ds.RecordCount(), ds.SkippedRecords)

	if isHTMX(c) {
		s.renderTemplate(c, "fragments/dataset.html", s.gridData(c, st.Dataset, st.SelectedIndex))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// handleGrid renders the filtered, paginated record grid fragment.
func (s *Server) handleGrid(c *gin.Context) {
	st := currentSession(c)
	if st.Dataset == nil {
		s.renderTemplate(c, "fragments/empty.html", gin.H{
			"Message": "No dataset loaded. Upload a CSV, SDF, or XLSX file to begin.",
		})
		return
	}
	// Loaded but no rows: the upload succeeded, say so rather than asking
	// for a file again.
	if st.Dataset.IsEmpty() {
		s.renderTemplate(c, "fragments/empty.html", gin.H{
			"Message": fmt.Sprintf("%s loaded, but it contains no data rows.", st.Dataset.SourceFilename),
		})
		return
	}
	s.renderTemplate(c, "fragments/grid.html", s.gridData(c, st.Dataset, st.SelectedIndex))
}

// handleRecordDetail renders the detail panel for one record and marks
// it selected.
func (s *Server) handleRecordDetail(c *gin.Context) {
	st := currentSession(c)
	rec, ok := s.recordByIndex(st.Dataset, c.Param("idx"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	s.sessions.SetSelection(st.ID, rec.Index)

	svg, err := s.renderer.RecordSVG(c.Request.Context(), rec)
	if err != nil {
		log.Printf("[handleRecordDetail] Depiction failed for record %d: %v", rec.Index, err)
		svg = s.renderer.Placeholder(depictErrorMessage(err))
	}

	s.renderTemplate(c, "fragments/detail.html", gin.H{
		"Record":  rec,
		"Columns": st.Dataset.Columns,
		"SVG":     template.HTML(svg),
	})
}

// handleDepict serves a record's structure as an SVG image. Failures
// return the placeholder tile so grid thumbnails degrade gracefully.
func (s *Server) handleDepict(c *gin.Context) {
	st := currentSession(c)
	idx := strings.TrimSuffix(c.Param("idx"), ".svg")
	rec, ok := s.recordByIndex(st.Dataset, idx)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	w := intQuery(c, "w", 0)
	h := intQuery(c, "h", 0)

	svg, err := s.renderer.RecordSVGSized(c.Request.Context(), rec, w, h)
	if err != nil {
		svg = s.renderer.PlaceholderSized(w, h, depictErrorMessage(err))
	}
	c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
}

// handleCacheStats reports depiction-cache and session counters.
func (s *Server) handleCacheStats(c *gin.Context) {
	stats := s.renderer.CacheStats()
	c.JSON(http.StatusOK, gin.H{
		"depiction_cache": stats,
		"hit_rate":        stats.HitRate(),
		"live_sessions":   s.sessions.Len(),
	})
}

// handleDatasetInfo reports the session's dataset summary as JSON.
func (s *Server) handleDatasetInfo(c *gin.Context) {
	st := currentSession(c)
	if st.Dataset.IsEmpty() {
		c.JSON(http.StatusOK, gin.H{"loaded": false})
		return
	}
	ds := st.Dataset
	c.JSON(http.StatusOK, gin.H{
		"loaded":          true,
		"id":              ds.ID,
		"source_filename": ds.SourceFilename,
		"format":          ds.Format,
		"record_count":    ds.RecordCount(),
		"skipped_records": ds.SkippedRecords,
		"columns":         ds.Columns,
		"profiles":        ds.Profiles,
		"loaded_at":       ds.LoadedAt,
	})
}

// handleUploadHistory lists recent uploads from the catalog, when one
// is configured.
func (s *Server) handleUploadHistory(c *gin.Context) {
	if s.catalog == nil {
		s.renderTemplate(c, "history.html", gin.H{
			"Entries": nil,
			"Message": "Upload history requires a configured database.",
		})
		return
	}
	entries, err := s.catalog.ListRecent(c.Request.Context(), 20)
	if err != nil {
		log.Printf("[handleUploadHistory] Failed to list catalog: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load upload history"})
		return
	}
	s.renderTemplate(c, "history.html", gin.H{"Entries": entries})
}

// uploadError answers an upload failure in the caller's dialect: an
// error fragment for HTMX, JSON otherwise.
func (s *Server) uploadError(c *gin.Context, status int, msg string) {
	if isHTMX(c) {
		c.Status(status)
		var buf strings.Builder
		if err := s.templates.ExecuteTemplate(&buf, "fragments/error.html", gin.H{"Message": msg}); err != nil {
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Writer.WriteString(buf.String())
		return
	}
	c.JSON(status, gin.H{"error": msg})
}

// gridData assembles the view model shared by the grid fragment and the
// post-upload dataset fragment.
func (s *Server) gridData(c *gin.Context, ds *molecule.Dataset, selected int) gin.H {
	filter := buildFilter(c, ds)
	filtered := dataset.Apply(ds, filter)
	perPage := intQuery(c, "per_page", 0)
	page := dataset.Paginate(filtered, intQuery(c, "page", 1), perPage)

	minVals := make(map[string]string)
	maxVals := make(map[string]string)
	for col, r := range filter.Ranges {
		if r.Min != nil {
			minVals[col] = strconv.FormatFloat(*r.Min, 'f', -1, 64)
		}
		if r.Max != nil {
			maxVals[col] = strconv.FormatFloat(*r.Max, 'f', -1, 64)
		}
	}

	return gin.H{
		"Dataset":    datasetSummary(ds),
		"Columns":    ds.Columns,
		"Profiles":   ds.Profiles,
		"Page":       page,
		"Selected":   selected,
		"Query":      filter.Query,
		"SMILES":     filter.SMILES,
		"ColFilters": filter.Columns,
		"MinVals":    minVals,
		"MaxVals":    maxVals,
		"PerPage":    perPage,
		"Filtered":   !filter.IsZero(),
	}
}

// buildFilter reads the grid's query parameters: q, smiles, f_<col>,
// min_<col>, max_<col>.
func buildFilter(c *gin.Context, ds *molecule.Dataset) dataset.Filter {
	f := dataset.Filter{
		Query:  strings.TrimSpace(c.Query("q")),
		SMILES: strings.TrimSpace(c.Query("smiles")),
	}
	for _, col := range ds.Columns {
		if v := strings.TrimSpace(c.Query("f_" + col)); v != "" {
			if f.Columns == nil {
				f.Columns = make(map[string]string)
			}
			f.Columns[col] = v
		}
		r := dataset.Range{}
		if v, err := strconv.ParseFloat(c.Query("min_"+col), 64); err == nil {
			r.Min = &v
		}
		if v, err := strconv.ParseFloat(c.Query("max_"+col), 64); err == nil {
			r.Max = &v
		}
		if r.Min != nil || r.Max != nil {
			if f.Ranges == nil {
				f.Ranges = make(map[string]dataset.Range)
			}
			f.Ranges[col] = r
		}
	}
	return f
}

func (s *Server) recordByIndex(ds *molecule.Dataset, raw string) (*molecule.Record, bool) {
	if ds.IsEmpty() {
		return nil, false
	}
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 1 || idx > len(ds.Records) {
		return nil, false
	}
	// Records are loaded with contiguous 1-based indexes.
	return &ds.Records[idx-1], true
}

func datasetSummary(ds *molecule.Dataset) gin.H {
	if ds == nil {
		return nil
	}
	return gin.H{
		"ID":             ds.ID,
		"SourceFilename": ds.SourceFilename,
		"Format":         strings.ToUpper(string(ds.Format)),
		"FileSize":       ds.FileSize,
		"RecordCount":    ds.RecordCount(),
		"SkippedRecords": ds.SkippedRecords,
		"ColumnCount":    len(ds.Columns),
		"LoadedAt":       ds.LoadedAt,
	}
}

func depictErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case core.IsStructureError(err):
		return "structure unavailable"
	default:
		return "depiction failed"
	}
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/healthconnect/internal/catalog"
)

// CatalogHandler serves the static specialization, doctor and treatment
// listings.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	if c == nil {
		c = catalog.Default()
	}
	return &CatalogHandler{catalog: c}
}

// Specializations handles GET /catalog/specializations
func (h *CatalogHandler) Specializations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"specializations": h.catalog.Specializations()})
}

// Doctors handles GET /catalog/specializations/{slug}/doctors?gender=
func (h *CatalogHandler) Doctors(w http.ResponseWriter, r *http.Request) {
	filter, err := catalog.ParseGenderFilter(r.URL.Query().Get("gender"))
	if err != nil {
		writeError(w, err)
		return
	}
	slug := chi.URLParam(r, "slug")
	resp := map[string]any{
		"doctors": h.catalog.DoctorsBySpecialization(slug, filter),
		"gender":  filter,
	}
	if spec, ok := h.catalog.Specialization(slug); ok {
		resp["specialization"] = spec
	}
	writeJSON(w, http.StatusOK, resp)
}

// Doctor handles GET /catalog/doctors/{doctorID}
func (h *CatalogHandler) Doctor(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "doctorID")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doctor, err := h.catalog.Doctor(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

// TreatmentCategories handles GET /catalog/treatment-categories
func (h *CatalogHandler) TreatmentCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": h.catalog.TreatmentCategories()})
}

type treatmentView struct {
	catalog.Treatment
	CostLabel string `json:"costLabel"`
}

// Treatments handles GET /catalog/treatment-categories/{slug}/treatments?gender=
func (h *CatalogHandler) Treatments(w http.ResponseWriter, r *http.Request) {
	filter, err := catalog.ParseGenderFilter(r.URL.Query().Get("gender"))
	if err != nil {
		writeError(w, err)
		return
	}
	slug := chi.URLParam(r, "slug")
	list := h.catalog.TreatmentsByCategory(slug, filter)
	views := make([]treatmentView, 0, len(list))
	for _, t := range list {
		views = append(views, treatmentView{Treatment: t, CostLabel: t.CostLabel()})
	}
	resp := map[string]any{"treatments": views, "gender": filter}
	if category, ok := h.catalog.TreatmentCategory(slug); ok {
		resp["category"] = category
	}
	writeJSON(w, http.StatusOK, resp)
}

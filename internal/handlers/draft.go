// internal/handlers/draft.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trendora/admin-backend/internal/config"
	"github.com/trendora/admin-backend/internal/draft"
	"github.com/trendora/admin-backend/internal/services"
	"github.com/trendora/admin-backend/internal/utils"
)

// DraftHandler exposes the draft editing engine over REST. One session is
// one open editor; every route below /drafts/:id addresses that session.
type DraftHandler struct {
	draftService   *services.DraftService
	productService *services.ProductService
	cfg            *config.Config
}

func NewDraftHandler(draftService *services.DraftService, productService *services.ProductService, cfg *config.Config) *DraftHandler {
	return &DraftHandler{
		draftService:   draftService,
		productService: productService,
		cfg:            cfg,
	}
}

type openDraftRequest struct {
	// Destination selects the save endpoint: "product" (catalog) or
	// "supplier_product" (approval queue).
	Destination string  `json:"destination" validate:"required,oneof=product supplier_product"`
	ProductID   *string `json:"product_id,omitempty"`
	SupplierID  *string `json:"supplier_id,omitempty"`
}

type scalarPatchRequest struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Brand         *string  `json:"brand,omitempty"`
	Stock         *int     `json:"stock,omitempty"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	DiscountPrice *float64 `json:"discountPrice,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Subcategory   *string  `json:"subcategory,omitempty"`
}

type featurePatchRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

type assetView struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	PreviewURI string `json:"preview_uri"`
	RemoteKey  string `json:"remote_key,omitempty"`
	Error      string `json:"error,omitempty"`
}

type featureView struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Image       *assetView `json:"image,omitempty"`
}

type draftView struct {
	SessionID        string                `json:"session_id"`
	State            string                `json:"state"`
	Name             string                `json:"name"`
	Description      string                `json:"description"`
	Brand            string                `json:"brand"`
	Stock            int                   `json:"stock"`
	OriginalPrice    float64               `json:"originalPrice"`
	DiscountPrice    float64               `json:"discountPrice"`
	DiscountPercent  int                   `json:"discountPercent"`
	Category         string                `json:"category"`
	Subcategory      string                `json:"subcategory"`
	Colors           []string              `json:"colors"`
	Specifications   []draft.Specification `json:"specifications"`
	SizeChart        []draft.SizeRow       `json:"sizeChart"`
	RatingAttributes []string              `json:"ratingAttributes"`
	Images           []assetView           `json:"images"`
	Features         []featureView         `json:"featureDescriptions"`
}

// POST /admin/drafts
func (h *DraftHandler) OpenDraft(c *gin.Context) {
	var req openDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	var productID *uuid.UUID
	if req.ProductID != nil {
		parsed, err := uuid.Parse(*req.ProductID)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid product ID", nil)
			return
		}
		productID = &parsed
	}

	saver, err := h.resolveSaver(c, &req, productID)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	session, err := h.draftService.Open(c.Request.Context(), saver)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	// Editing an existing product starts from its persisted state.
	if productID != nil {
		if err := h.seedFromProduct(session, req.Destination, *productID); err != nil {
			h.draftService.Close(session.ID)
			utils.NotFoundResponse(c, "product")
			return
		}
	}

	utils.CreatedResponse(c, h.snapshot(session))
}

func (h *DraftHandler) resolveSaver(c *gin.Context, req *openDraftRequest, productID *uuid.UUID) (draft.Saver, error) {
	switch req.Destination {
	case "product":
		return h.productService.ProductSaver(productID), nil
	case "supplier_product":
		var supplierID uuid.UUID
		if req.SupplierID != nil {
			parsed, err := uuid.Parse(*req.SupplierID)
			if err != nil {
				return nil, errors.New("invalid supplier ID")
			}
			supplierID = parsed
		} else if userIDStr, ok := utils.GetUserIDFromContext(c); ok {
			parsed, err := uuid.Parse(userIDStr)
			if err != nil {
				return nil, errors.New("invalid user ID")
			}
			supplierID = parsed
		} else {
			return nil, errors.New("supplier ID is required")
		}
		return h.productService.SupplierProductSaver(supplierID, productID), nil
	}
	return nil, errors.New("unknown destination")
}

// seedFromProduct rebuilds the draft from a persisted product: scalars and
// collections copy over, images and feature images restore as uploaded
// assets, and the stored display names map back to reference IDs where the
// current tree still has them.
func (h *DraftHandler) seedFromProduct(session *draft.Session, destination string, productID uuid.UUID) error {
	var (
		name, description, brand, category, subcategory string
		originalPrice, discountPrice                    float64
		stock                                           int
		colors, images, ratingAttrs                     []string
		specs                                           []draft.Specification
		sizeChart                                       []draft.SizeRow
		features                                        []draft.FeaturePayload
	)

	switch destination {
	case "supplier_product":
		product, err := h.productService.GetSupplierProduct(productID)
		if err != nil {
			return err
		}
		name, description, brand = product.Name, product.Description, product.Brand
		category, subcategory = product.Category, product.Subcategory
		originalPrice, discountPrice = product.OriginalPrice, product.DiscountPrice
		stock = product.Stock
		colors, images, ratingAttrs = product.Colors, product.Images, product.RatingAttributes
		for _, s := range product.Specifications {
			specs = append(specs, draft.Specification{Key: s.Key, Value: s.Value})
		}
		for _, r := range product.SizeChart {
			sizeChart = append(sizeChart, draft.SizeRow{Label: r.Label, Stock: r.Stock})
		}
		for _, f := range product.Features {
			features = append(features, draft.FeaturePayload{Title: f.Title, Description: f.Description, Image: f.Image})
		}
	default:
		product, err := h.productService.GetProduct(productID)
		if err != nil {
			return err
		}
		name, description, brand = product.Name, product.Description, product.Brand
		category, subcategory = product.Category, product.Subcategory
		originalPrice, discountPrice = product.OriginalPrice, product.DiscountPrice
		stock = product.Stock
		colors, images, ratingAttrs = product.Colors, product.Images, product.RatingAttributes
		for _, s := range product.Specifications {
			specs = append(specs, draft.Specification{Key: s.Key, Value: s.Value})
		}
		for _, r := range product.SizeChart {
			sizeChart = append(sizeChart, draft.SizeRow{Label: r.Label, Stock: r.Stock})
		}
		for _, f := range product.Features {
			features = append(features, draft.FeaturePayload{Title: f.Title, Description: f.Description, Image: f.Image})
		}
	}

	return session.Update(func(d *draft.Draft) error {
		d.Name = name
		d.Description = description
		d.Brand = brand
		d.OriginalPrice = originalPrice
		d.DiscountPrice = discountPrice
		d.Stock = stock
		d.Colors.Replace(colors)
		d.Specifications.Replace(specs)
		d.SizeChart.Replace(sizeChart)
		if len(ratingAttrs) > 0 {
			d.RatingAttributes.Replace(ratingAttrs)
		}
		d.RestoreImages(images)
		for _, f := range features {
			d.RestoreFeature(f.Title, f.Description, f.Image)
		}

		// Stored names map back to reference IDs only while the tree still
		// carries them; a renamed or deleted node leaves the selection empty.
		catID, subID := h.referencesForNames(session.Resolver(), category, subcategory)
		if catID != "" {
			d.SetCategory(catID)
			if subID != "" {
				d.SetSubcategory(subID)
			}
		}
		return nil
	})
}

func (h *DraftHandler) referencesForNames(resolver *draft.Resolver, categoryName, subcategoryName string) (string, string) {
	for _, cat := range resolver.Categories() {
		if cat.Name != categoryName {
			continue
		}
		for _, sub := range cat.Subcategories {
			if sub.Name == subcategoryName {
				return cat.ID, sub.ID
			}
		}
		return cat.ID, ""
	}
	return "", ""
}

// GET /admin/drafts/:id
func (h *DraftHandler) GetDraft(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Touch()
	utils.SuccessResponse(c, h.snapshot(session))
}

// GET /admin/drafts/:id/categories
func (h *DraftHandler) GetDraftCategories(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Touch()

	resolver := session.Resolver()
	categoryRef := session.Draft().CategoryRef()
	utils.SuccessResponse(c, gin.H{
		"categories":    resolver.Categories(),
		"subcategories": resolver.SubcategoriesFor(categoryRef),
	})
}

// PATCH /admin/drafts/:id
func (h *DraftHandler) UpdateDraft(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req scalarPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	err := session.Update(func(d *draft.Draft) error {
		if req.Name != nil {
			d.Name = *req.Name
		}
		if req.Description != nil {
			d.Description = *req.Description
		}
		if req.Brand != nil {
			d.Brand = *req.Brand
		}
		if req.Stock != nil {
			d.Stock = *req.Stock
		}
		if req.OriginalPrice != nil {
			d.OriginalPrice = *req.OriginalPrice
		}
		if req.DiscountPrice != nil {
			d.DiscountPrice = *req.DiscountPrice
		}
		if req.Category != nil {
			d.SetCategory(*req.Category)
		}
		if req.Subcategory != nil {
			d.SetSubcategory(*req.Subcategory)
		}
		return nil
	})
	if err != nil {
		h.draftError(c, err)
		return
	}

	utils.SuccessResponse(c, h.snapshot(session))
}

// POST /admin/drafts/:id/images
func (h *DraftHandler) SelectImages(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Touch()

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form", err.Error())
		return
	}

	headers := form.File["images"]
	if len(headers) == 0 {
		utils.BadRequestResponse(c, "No images provided", nil)
		return
	}

	files := make([]draft.SourceFile, 0, len(headers))
	for _, header := range headers {
		source, err := services.NewUploadSource(header, h.cfg.Uploads.TempDir)
		if err != nil {
			for _, f := range files {
				f.Release()
			}
			utils.InternalErrorResponse(c, err.Error())
			return
		}
		files = append(files, source)
	}

	assets, err := session.Draft().Images.Select(c.Request.Context(), files...)
	if err != nil {
		// A rejected batch was never admitted; its staged files are still ours.
		for _, f := range files {
			f.Release()
		}
		if errors.Is(err, draft.ErrSelectionRejected) {
			utils.UnprocessableResponse(c, "SELECTION_REJECTED",
				"Selection exceeds the 5 image limit", gin.H{"max_images": draft.MaxImages})
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	views := make([]assetView, 0, len(assets))
	for _, a := range assets {
		views = append(views, assetToView(a))
	}
	utils.SuccessResponse(c, gin.H{"images": views})
}

// DELETE /admin/drafts/:id/images/:assetId
func (h *DraftHandler) RemoveImage(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Touch()

	assetID, err := uuid.Parse(c.Param("assetId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid asset ID", nil)
		return
	}

	if !session.Draft().Images.Remove(assetID) {
		utils.NotFoundResponse(c, "image")
		return
	}
	utils.SuccessResponse(c, h.snapshot(session))
}

// POST /admin/drafts/:id/collections/:collection
func (h *DraftHandler) AppendCollectionItem(c *gin.Context) {
	h.mutateCollection(c, func(d *draft.Draft, collection string, c *gin.Context) error {
		switch collection {
		case "colors":
			var item struct {
				Value string `json:"value"`
			}
			if err := c.ShouldBindJSON(&item); err != nil {
				return errBadItem
			}
			d.Colors.Append(item.Value)
		case "specifications":
			var item draft.Specification
			if err := c.ShouldBindJSON(&item); err != nil {
				return errBadItem
			}
			d.Specifications.Append(item)
		case "sizeChart":
			var item draft.SizeRow
			if err := c.ShouldBindJSON(&item); err != nil {
				return errBadItem
			}
			d.SizeChart.Append(item)
		case "ratingAttributes":
			var item struct {
				Value string `json:"value"`
			}
			if err := c.ShouldBindJSON(&item); err != nil {
				return errBadItem
			}
			d.RatingAttributes.Append(item.Value)
		default:
			return errUnknownCollection
		}
		return nil
	})
}

// PUT /admin/drafts/:id/collections/:collection/:index
func (h *DraftHandler) UpdateCollectionItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid index", nil)
		return
	}

	h.mutateCollection(c, func(d *draft.Draft, collection string, c *gin.Context) error {
		switch collection {
		case "colors":
			var item struct {
				Value string `json:"value"`
			}
			if err := c.ShouldBindJSON(&item); err != nil {
				return errBadItem
			}
			return d.Colors.Update(index, func(v *string) { *v = item.Value })
		case "specifications":
			var item draft.Specification
			if err := c.ShouldBindJSON(&item); err != nil {
				return errBadItem
			}
			return d.Specifications.Update(index, func(v *draft.Specification) { *v = item })
		case "sizeChart":
			var item draft.SizeRow
			if err := c.ShouldBindJSON(&item); err != nil {
				return errBadItem
			}
			return d.SizeChart.Update(index, func(v *draft.SizeRow) { *v = item })
		case "ratingAttributes":
			var item struct {
				Value string `json:"value"`
			}
			if err := c.ShouldBindJSON(&item); err != nil {
				return errBadItem
			}
			return d.RatingAttributes.Update(index, func(v *string) { *v = item.Value })
		default:
			return errUnknownCollection
		}
	})
}

// DELETE /admin/drafts/:id/collections/:collection/:index
func (h *DraftHandler) RemoveCollectionItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid index", nil)
		return
	}

	h.mutateCollection(c, func(d *draft.Draft, collection string, _ *gin.Context) error {
		switch collection {
		case "colors":
			return d.Colors.Remove(index)
		case "specifications":
			return d.Specifications.Remove(index)
		case "sizeChart":
			return d.SizeChart.Remove(index)
		case "ratingAttributes":
			return d.RatingAttributes.Remove(index)
		default:
			return errUnknownCollection
		}
	})
}

var (
	errBadItem           = errors.New("invalid collection item")
	errUnknownCollection = errors.New("unknown collection")
)

func (h *DraftHandler) mutateCollection(c *gin.Context, fn func(*draft.Draft, string, *gin.Context) error) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	collection := c.Param("collection")
	err := session.Update(func(d *draft.Draft) error {
		return fn(d, collection, c)
	})
	if err != nil {
		switch {
		case errors.Is(err, errUnknownCollection):
			utils.NotFoundResponse(c, "collection")
		case errors.Is(err, errBadItem):
			utils.BadRequestResponse(c, "Invalid collection item", nil)
		case errors.Is(err, draft.ErrIndexOutOfRange):
			utils.BadRequestResponse(c, "Index out of range", nil)
		default:
			h.draftError(c, err)
		}
		return
	}

	utils.SuccessResponse(c, h.snapshot(session))
}

// POST /admin/drafts/:id/features
func (h *DraftHandler) AddFeature(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var index int
	err := session.Update(func(d *draft.Draft) error {
		index = d.AddFeature()
		return nil
	})
	if err != nil {
		h.draftError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"index": index})
}

// PUT /admin/drafts/:id/features/:index
func (h *DraftHandler) UpdateFeature(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid index", nil)
		return
	}

	var req featurePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	err = session.Update(func(d *draft.Draft) error {
		return d.UpdateFeature(index, func(f *draft.Feature) {
			if req.Title != nil {
				f.Title = *req.Title
			}
			if req.Description != nil {
				f.Description = *req.Description
			}
		})
	})
	if err != nil {
		if errors.Is(err, draft.ErrIndexOutOfRange) {
			utils.BadRequestResponse(c, "Index out of range", nil)
			return
		}
		h.draftError(c, err)
		return
	}

	utils.SuccessResponse(c, h.snapshot(session))
}

// DELETE /admin/drafts/:id/features/:index
func (h *DraftHandler) RemoveFeature(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid index", nil)
		return
	}

	err = session.Update(func(d *draft.Draft) error {
		return d.RemoveFeature(index)
	})
	if err != nil {
		if errors.Is(err, draft.ErrIndexOutOfRange) {
			utils.BadRequestResponse(c, "Index out of range", nil)
			return
		}
		h.draftError(c, err)
		return
	}

	utils.SuccessResponse(c, h.snapshot(session))
}

// POST /admin/drafts/:id/features/:index/image
func (h *DraftHandler) SetFeatureImage(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Touch()

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid index", nil)
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, "No image provided", err.Error())
		return
	}

	source, err := services.NewUploadSource(header, h.cfg.Uploads.TempDir)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	asset, err := session.Draft().SetFeatureImage(c.Request.Context(), index, source)
	if err != nil {
		source.Release()
		if errors.Is(err, draft.ErrIndexOutOfRange) {
			utils.BadRequestResponse(c, "Index out of range", nil)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	view := assetToView(asset)
	utils.SuccessResponse(c, gin.H{"image": view})
}

// DELETE /admin/drafts/:id/features/:index/image
func (h *DraftHandler) ClearFeatureImage(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Touch()

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid index", nil)
		return
	}

	if err := session.Draft().ClearFeatureImage(index); err != nil {
		if errors.Is(err, draft.ErrIndexOutOfRange) {
			utils.BadRequestResponse(c, "Index out of range", nil)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}
	utils.SuccessResponse(c, h.snapshot(session))
}

// POST /admin/drafts/:id/submit
func (h *DraftHandler) SubmitDraft(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	payload, err := session.Submit(c.Request.Context())
	if err != nil {
		h.draftError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"state":   string(session.State()),
		"payload": payload,
	})
}

// DELETE /admin/drafts/:id
func (h *DraftHandler) CloseDraft(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid draft session ID", nil)
		return
	}

	h.draftService.Close(id)
	c.Status(http.StatusNoContent)
}

func (h *DraftHandler) session(c *gin.Context) (*draft.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid draft session ID", nil)
		return nil, false
	}

	session, ok := h.draftService.Get(id)
	if !ok {
		utils.NotFoundResponse(c, "draft session")
		return nil, false
	}
	return session, true
}

func (h *DraftHandler) draftError(c *gin.Context, err error) {
	var validationErr *draft.ValidationError
	var saveErr *draft.SaveError

	switch {
	case errors.Is(err, draft.ErrUploadsInProgress):
		utils.ConflictResponse(c, "Uploads are still in progress")
	case errors.Is(err, draft.ErrSessionSaved):
		utils.ConflictResponse(c, "Draft session is already saved")
	case errors.As(err, &validationErr):
		utils.UnprocessableResponse(c, "DRAFT_INVALID", "Draft validation failed", validationErr.Violations)
	case errors.As(err, &saveErr):
		utils.ErrorResponse(c, http.StatusBadGateway, "SAVE_FAILED", saveErr.Error(), nil)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}

// snapshot renders the session's current editing state. Upload paths mutate
// concurrently, so this is a point-in-time view.
func (h *DraftHandler) snapshot(session *draft.Session) draftView {
	d := session.Draft()
	categoryName, subcategoryName := session.Resolver().ResolveNames(d.CategoryRef(), d.SubcategoryRef())

	assets := d.Images.Assets()
	images := make([]assetView, 0, len(assets))
	for _, a := range assets {
		images = append(images, assetToView(a))
	}

	features := d.Features()
	featureViews := make([]featureView, 0, len(features))
	for _, f := range features {
		fv := featureView{Title: f.Title, Description: f.Description}
		if f.Image != nil {
			view := assetToView(f.Image)
			fv.Image = &view
		}
		featureViews = append(featureViews, fv)
	}

	return draftView{
		SessionID:        session.ID.String(),
		State:            string(session.State()),
		Name:             d.Name,
		Description:      d.Description,
		Brand:            d.Brand,
		Stock:            d.Stock,
		OriginalPrice:    d.OriginalPrice,
		DiscountPrice:    d.DiscountPrice,
		DiscountPercent:  draft.DiscountPercent(d.OriginalPrice, d.DiscountPrice),
		Category:         categoryName,
		Subcategory:      subcategoryName,
		Colors:           d.Colors.Items(),
		Specifications:   d.Specifications.Items(),
		SizeChart:        d.SizeChart.Items(),
		RatingAttributes: d.RatingAttributes.Items(),
		Images:           images,
		Features:         featureViews,
	}
}

func assetToView(a *draft.Asset) assetView {
	view := assetView{
		ID:         a.ID.String(),
		Status:     string(a.Status),
		PreviewURI: a.PreviewURI,
		RemoteKey:  a.RemoteKey,
	}
	if a.Err != nil {
		view.Error = a.Err.Error()
	}
	return view
}

// internal/handlers/draft_handler_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/trendora/admin-backend/internal/config"
	"github.com/trendora/admin-backend/internal/draft"
	"github.com/trendora/admin-backend/internal/services"
)

type fakeUploader struct {
	mtx   sync.Mutex
	count int
}

func (u *fakeUploader) Upload(_ context.Context, file draft.SourceFile) (string, error) {
	reader, err := file.Open()
	if err != nil {
		return "", err
	}
	defer reader.Close()
	if _, err := io.ReadAll(reader); err != nil {
		return "", err
	}

	u.mtx.Lock()
	defer u.mtx.Unlock()
	u.count++
	return fmt.Sprintf("https://cdn.example.com/products/%d_%s", u.count, file.Name()), nil
}

type fakeCategorySource struct{}

func (fakeCategorySource) Categories(context.Context) ([]draft.Category, error) {
	return []draft.Category{
		{
			ID:   "cat-clothing",
			Name: "Clothing",
			Subcategories: []draft.Subcategory{
				{ID: "sub-shirts", Name: "Shirts"},
				{ID: "sub-jeans", Name: "Jeans"},
			},
		},
	}, nil
}

type DraftHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	draftService *services.DraftService
}

func (suite *DraftHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Uploads: config.UploadConfig{
			TempDir:     suite.T().TempDir(),
			MaxFileSize: 10 * 1024 * 1024,
			SessionTTL:  60,
		},
	}

	suite.draftService = services.NewDraftService(&fakeUploader{}, fakeCategorySource{}, cfg)
	suite.T().Cleanup(suite.draftService.Shutdown)

	handler := NewDraftHandler(suite.draftService, services.NewProductService(nil), cfg)

	suite.router = gin.New()
	drafts := suite.router.Group("/admin/drafts")
	{
		drafts.POST("", handler.OpenDraft)
		drafts.GET("/:id", handler.GetDraft)
		drafts.PATCH("/:id", handler.UpdateDraft)
		drafts.DELETE("/:id", handler.CloseDraft)
		drafts.GET("/:id/categories", handler.GetDraftCategories)
		drafts.POST("/:id/images", handler.SelectImages)
		drafts.DELETE("/:id/images/:assetId", handler.RemoveImage)
		drafts.POST("/:id/collections/:collection", handler.AppendCollectionItem)
		drafts.PUT("/:id/collections/:collection/:index", handler.UpdateCollectionItem)
		drafts.DELETE("/:id/collections/:collection/:index", handler.RemoveCollectionItem)
		drafts.POST("/:id/features", handler.AddFeature)
		drafts.PUT("/:id/features/:index", handler.UpdateFeature)
		drafts.DELETE("/:id/features/:index", handler.RemoveFeature)
		drafts.POST("/:id/features/:index/image", handler.SetFeatureImage)
		drafts.DELETE("/:id/features/:index/image", handler.ClearFeatureImage)
		drafts.POST("/:id/submit", handler.SubmitDraft)
	}
}

func (suite *DraftHandlerTestSuite) doJSON(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewBuffer(jsonData)
	}

	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *DraftHandlerTestSuite) doMultipart(method, path, field string, filenames ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, name := range filenames {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(suite.T(), err)
		_, err = part.Write([]byte("fake image bytes for " + name))
		require.NoError(suite.T(), err)
	}
	require.NoError(suite.T(), writer.Close())

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *DraftHandlerTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func (suite *DraftHandlerTestSuite) openDraft() string {
	w := suite.doJSON("POST", "/admin/drafts", map[string]interface{}{"destination": "product"})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	response := suite.decode(w)
	data := response["data"].(map[string]interface{})
	return data["session_id"].(string)
}

func (suite *DraftHandlerTestSuite) TestOpenDraftSeedsDefaults() {
	w := suite.doJSON("POST", "/admin/drafts", map[string]interface{}{"destination": "product"})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	response := suite.decode(w)
	assert.True(suite.T(), response["success"].(bool))

	data := response["data"].(map[string]interface{})
	assert.Equal(suite.T(), "editing", data["state"])
	assert.NotEmpty(suite.T(), data["session_id"])

	attrs := data["ratingAttributes"].([]interface{})
	require.Len(suite.T(), attrs, 4)
	assert.Equal(suite.T(), "Quality", attrs[0])
}

func (suite *DraftHandlerTestSuite) TestOpenDraftRejectsUnknownDestination() {
	w := suite.doJSON("POST", "/admin/drafts", map[string]interface{}{"destination": "warehouse"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *DraftHandlerTestSuite) TestPatchScalarsAndCategoryResolution() {
	id := suite.openDraft()

	w := suite.doJSON("PATCH", "/admin/drafts/"+id, map[string]interface{}{
		"name":          "Crew Neck Tee",
		"originalPrice": 100.0,
		"discountPrice": 80.0,
		"category":      "cat-clothing",
		"subcategory":   "sub-shirts",
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	data := suite.decode(w)["data"].(map[string]interface{})
	assert.Equal(suite.T(), "Crew Neck Tee", data["name"])
	assert.Equal(suite.T(), "Clothing", data["category"])
	assert.Equal(suite.T(), "Shirts", data["subcategory"])
	assert.Equal(suite.T(), float64(20), data["discountPercent"])
}

func (suite *DraftHandlerTestSuite) TestChangingCategoryClearsSubcategory() {
	id := suite.openDraft()

	suite.doJSON("PATCH", "/admin/drafts/"+id, map[string]interface{}{
		"category":    "cat-clothing",
		"subcategory": "sub-jeans",
	})

	w := suite.doJSON("PATCH", "/admin/drafts/"+id, map[string]interface{}{
		"category": "cat-clothing",
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	data := suite.decode(w)["data"].(map[string]interface{})
	assert.Equal(suite.T(), "", data["subcategory"])
}

func (suite *DraftHandlerTestSuite) TestCollectionLifecycle() {
	id := suite.openDraft()
	base := "/admin/drafts/" + id + "/collections/specifications"

	w := suite.doJSON("POST", base, map[string]interface{}{"key": "Material", "value": "Cotton"})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.doJSON("PUT", base+"/0", map[string]interface{}{"key": "Material", "value": "Linen"})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	data := suite.decode(w)["data"].(map[string]interface{})
	specs := data["specifications"].([]interface{})
	require.Len(suite.T(), specs, 1)
	assert.Equal(suite.T(), "Linen", specs[0].(map[string]interface{})["value"])

	w = suite.doJSON("DELETE", base+"/0", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	data = suite.decode(w)["data"].(map[string]interface{})
	assert.Empty(suite.T(), data["specifications"])
}

func (suite *DraftHandlerTestSuite) TestCollectionIndexOutOfRange() {
	id := suite.openDraft()

	w := suite.doJSON("DELETE", "/admin/drafts/"+id+"/collections/colors/5", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *DraftHandlerTestSuite) TestUnknownCollection() {
	id := suite.openDraft()

	w := suite.doJSON("POST", "/admin/drafts/"+id+"/collections/tags", map[string]interface{}{"value": "x"})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *DraftHandlerTestSuite) TestSelectImagesUploads() {
	id := suite.openDraft()

	w := suite.doMultipart("POST", "/admin/drafts/"+id+"/images", "images", "a.jpg", "b.jpg")
	require.Equal(suite.T(), http.StatusOK, w.Code)

	data := suite.decode(w)["data"].(map[string]interface{})
	images := data["images"].([]interface{})
	require.Len(suite.T(), images, 2)

	// Select returns after the sequential upload loop finishes
	for _, img := range images {
		view := img.(map[string]interface{})
		assert.Equal(suite.T(), "uploaded", view["status"])
		assert.NotEmpty(suite.T(), view["remote_key"])
	}
}

func (suite *DraftHandlerTestSuite) TestSelectImagesOverCap() {
	id := suite.openDraft()

	w := suite.doMultipart("POST", "/admin/drafts/"+id+"/images", "images",
		"1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg", "6.jpg")
	require.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)

	// The collection is untouched by a rejected selection
	w = suite.doJSON("GET", "/admin/drafts/"+id, nil)
	data := suite.decode(w)["data"].(map[string]interface{})
	assert.Empty(suite.T(), data["images"])
}

func (suite *DraftHandlerTestSuite) TestRemoveImage() {
	id := suite.openDraft()

	w := suite.doMultipart("POST", "/admin/drafts/"+id+"/images", "images", "a.jpg")
	require.Equal(suite.T(), http.StatusOK, w.Code)
	images := suite.decode(w)["data"].(map[string]interface{})["images"].([]interface{})
	assetID := images[0].(map[string]interface{})["id"].(string)

	w = suite.doJSON("DELETE", "/admin/drafts/"+id+"/images/"+assetID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.doJSON("DELETE", "/admin/drafts/"+id+"/images/"+assetID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *DraftHandlerTestSuite) TestFeatureLifecycle() {
	id := suite.openDraft()

	w := suite.doJSON("POST", "/admin/drafts/"+id+"/features", nil)
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	data := suite.decode(w)["data"].(map[string]interface{})
	assert.Equal(suite.T(), float64(0), data["index"])

	w = suite.doJSON("PUT", "/admin/drafts/"+id+"/features/0", map[string]interface{}{
		"title":       "Breathable fabric",
		"description": "Stays cool in summer",
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.doMultipart("POST", "/admin/drafts/"+id+"/features/0/image", "image", "feature.jpg")
	require.Equal(suite.T(), http.StatusOK, w.Code)
	image := suite.decode(w)["data"].(map[string]interface{})["image"].(map[string]interface{})
	assert.Equal(suite.T(), "uploaded", image["status"])

	w = suite.doJSON("DELETE", "/admin/drafts/"+id+"/features/0/image", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	data = suite.decode(w)["data"].(map[string]interface{})
	features := data["featureDescriptions"].([]interface{})
	require.Len(suite.T(), features, 1)
	assert.Nil(suite.T(), features[0].(map[string]interface{})["image"])

	w = suite.doJSON("DELETE", "/admin/drafts/"+id+"/features/0", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *DraftHandlerTestSuite) TestSubmitEmptyDraftFailsValidation() {
	id := suite.openDraft()

	w := suite.doJSON("POST", "/admin/drafts/"+id+"/submit", nil)
	require.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)

	response := suite.decode(w)
	errObj := response["error"].(map[string]interface{})
	assert.Equal(suite.T(), "DRAFT_INVALID", errObj["code"])
	assert.NotEmpty(suite.T(), errObj["details"])
}

func (suite *DraftHandlerTestSuite) TestCloseDraft() {
	id := suite.openDraft()

	w := suite.doJSON("DELETE", "/admin/drafts/"+id, nil)
	require.Equal(suite.T(), http.StatusNoContent, w.Code)

	w = suite.doJSON("GET", "/admin/drafts/"+id, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *DraftHandlerTestSuite) TestUnknownSession() {
	w := suite.doJSON("GET", "/admin/drafts/9f4c3f5e-0000-0000-0000-000000000000", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func TestDraftHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(DraftHandlerTestSuite))
}

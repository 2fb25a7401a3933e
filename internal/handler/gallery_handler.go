package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/catalog"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/dialogue"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/log"
)

// 图片标识统一以 images/ 开头，与 /images/*filepath 路由对应。
const imagePrefix = "images"

// PresignFunc 为对象生成限时访问地址。
type PresignFunc func(ctx context.Context, object string, expiry time.Duration) (string, error)

// GalleryHandler 提供图库图片。配置了 presign 时重定向到对象存储，否则读取本地目录。
type GalleryHandler struct {
	gallery  *catalog.Gallery
	imageDir string
	presign  PresignFunc
}

// NewGalleryHandler 创建 GalleryHandler。presign 可以为 nil。
func NewGalleryHandler(gallery *catalog.Gallery, imageDir string, presign PresignFunc) *GalleryHandler {
	return &GalleryHandler{gallery: gallery, imageDir: imageDir, presign: presign}
}

// Image 处理 GET /images/*filepath。只提供图库中登记过的图片。
func (h *GalleryHandler) Image(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("filepath"), "/")
	if rel == "" || !h.gallery.HasImage(imagePrefix+"/"+rel) {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "image not found", "data": nil})
		return
	}

	if h.presign != nil {
		url, err := h.presign(c.Request.Context(), rel, 15*time.Minute)
		if err != nil {
			log.Error("failed to presign gallery image", err)
			c.JSON(http.StatusBadGateway, gin.H{"code": http.StatusBadGateway, "message": "image storage unavailable", "data": nil})
			return
		}
		c.Redirect(http.StatusFound, url)
		return
	}
	c.File(filepath.Join(h.imageDir, filepath.FromSlash(rel)))
}

// Categories 处理 GET /gallery/categories，返回图库类别及其图片地址。
func (h *GalleryHandler) Categories(c *gin.Context) {
	type category struct {
		Name        string   `json:"name"`
		DisplayName string   `json:"displayName"`
		Images      []string `json:"images"`
	}
	filter := c.Query("category")
	out := []category{}
	for _, cat := range h.gallery.Categories() {
		if filter != "" && filter != cat.Name {
			continue
		}
		urls := make([]string, 0, len(cat.Images))
		for _, img := range cat.Images {
			urls = append(urls, dialogue.ImageURL(img))
		}
		out = append(out, category{Name: cat.Name, DisplayName: cat.DisplayName, Images: urls})
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": out})
}

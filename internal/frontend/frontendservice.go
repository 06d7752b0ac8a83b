package frontend

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/cropdoctor/internal/core"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName = "index.html"
	mimeSVG      = "image/svg+xml"
	mimePNG      = "image/png"

	// uploadContentPolicy keeps saved files from running script when opened directly
	uploadContentPolicy = "default-src 'none'; img-src 'self'; sandbox"
)

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
	iconPNG     []byte
}

type indexPage struct {
	Title  string
	Labels []string
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

func (service *FrontendService) SetRoutes(e *echo.Echo) error {
	renderer, err := NewTemplate()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	e.Renderer = renderer

	iconSVG, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		return fmt.Errorf("failed to read icon: %w", err)
	}
	if service.iconPNG, err = renderIconPNG(iconSVG, touchIconSize); err != nil {
		return err
	}

	e.GET("/", service.indexHandler)
	e.GET("/"+MainPageName, service.indexHandler)

	// Saved uploads are served back as static files
	uploads := echo.MustSubFS(e.Filesystem, service.coreService.UploadDirectory())
	e.GET(service.config.UploadURLPrefix+"*", echo.StaticDirectoryHandler(uploads, false), uploadHeaders)

	// Favicon (SVG) and touch icon (PNG) routes
	e.GET("/icon.svg", service.iconHandler)
	e.GET("/icon.png", service.iconPNGHandler)
	return nil
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	title := service.config.Title
	if title == "" {
		title = core.DefaultTitle
	}
	page := indexPage{
		Title:  title,
		Labels: service.coreService.LabelNames(),
	}
	if err := ctx.Render(http.StatusOK, MainPageName, page); err != nil {
		slog.Error("indexHandler: failed to render page", "status", http.StatusInternalServerError, "error", err)
		return err
	}
	return nil
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, mimeSVG, data)
}

func (service *FrontendService) iconPNGHandler(ctx echo.Context) error {
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, mimePNG, service.iconPNG)
}

// uploadHeaders stops browsers from sniffing saved uploads into another type
// and sandboxes them when they are opened as documents.
func uploadHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		header := ctx.Response().Header()
		header.Set("X-Content-Type-Options", "nosniff")
		header.Set("Content-Security-Policy", uploadContentPolicy)
		return next(ctx)
	}
}

// Package api handles HTTP and WebSocket API endpoints
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/thelabel/label-engine/internal/command"
	"github.com/thelabel/label-engine/internal/preview"
	"github.com/thelabel/label-engine/internal/printer"
	"github.com/thelabel/label-engine/internal/raster"
	"github.com/thelabel/label-engine/internal/registry"
	"github.com/thelabel/label-engine/pkg/labelformat"
)

const requestTimeout = 30 * time.Second

// Server is the API server
type Server struct {
	router   *gin.Engine
	manager  *printer.Manager
	batch    *printer.Batch
	registry *registry.Registry
	executor *command.Executor
	upgrader websocket.Upgrader
}

// NewServer creates a new API server. Connection state changes are
// broadcast to every WebSocket client.
func NewServer(manager *printer.Manager, batch *printer.Batch, reg *registry.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.Default()
	router.Use(corsMiddleware())

	server := &Server{
		router:   router,
		manager:  manager,
		batch:    batch,
		registry: reg,
		executor: command.NewExecutor(manager, batch, reg),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
	}

	server.setupRoutes()

	manager.Session().OnStateChange(func(state printer.ConnectionState) {
		server.BroadcastState(state)
	})

	return server
}

func (s *Server) setupRoutes() {
	// Discovery and connection lifecycle
	s.router.GET("/devices", s.handleGetDevices)
	s.router.GET("/devices/known", s.handleGetKnownDevices)
	s.router.POST("/device/name", s.handleSetDeviceName)
	s.router.POST("/device/forget", s.handleForgetDevice)
	s.router.POST("/connect", s.handleConnect)
	s.router.POST("/disconnect", s.handleDisconnect)
	s.router.GET("/status", s.handleStatus)
	s.router.POST("/verify", s.handleVerify)

	// Printing
	s.router.POST("/print/shipping", s.handlePrintShipping)
	s.router.POST("/print/design", s.handlePrintDesign)
	s.router.POST("/print/image", s.handlePrintImage)

	// Preview
	s.router.POST("/preview/shipping", s.handlePreviewShipping)
	s.router.POST("/preview/design", s.handlePreviewDesign)

	// Command endpoint
	s.router.POST("/command", s.handleCommand)

	// WebSocket
	s.router.GET("/ws", s.handleWebSocket)

	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

// handleGetDevices scans for reachable printers
func (s *Server) handleGetDevices(c *gin.Context) {
	includeKnown := c.Query("include_known") == "true"

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	devices, err := s.manager.Discover(ctx, includeKnown)
	if err != nil {
		c.JSON(500, gin.H{"error": fmt.Sprintf("discovery failed: %v", err)})
		return
	}

	c.JSON(200, gin.H{"devices": devices})
}

// handleGetKnownDevices returns remembered printers
func (s *Server) handleGetKnownDevices(c *gin.Context) {
	c.JSON(200, gin.H{"devices": s.registry.All()})
}

// handleSetDeviceName sets a custom name for a remembered printer
func (s *Server) handleSetDeviceName(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
		Name    string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "address and name are required"})
		return
	}

	if !s.registry.SetDeviceName(req.Address, req.Name) {
		c.JSON(404, gin.H{"error": "device not remembered"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

// handleForgetDevice removes a remembered printer
func (s *Server) handleForgetDevice(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "address is required"})
		return
	}

	if !s.registry.Forget(req.Address) {
		c.JSON(404, gin.H{"error": "device not remembered"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

// handleConnect attempts a printer connection
func (s *Server) handleConnect(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
		Name    string `json:"name"`
		Kind    string `json:"kind"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "address is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ok, err := s.manager.Connect(ctx, printer.Device{
		Name:    req.Name,
		Address: req.Address,
		Kind:    req.Kind,
	})
	if err != nil {
		status := 502
		if errors.Is(err, printer.ErrBusy) {
			status = 409
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(200, gin.H{"success": ok, "status": s.manager.Status()})
}

// handleDisconnect tears the connection down
func (s *Server) handleDisconnect(c *gin.Context) {
	s.manager.Disconnect()
	c.JSON(200, gin.H{"success": true})
}

// handleStatus returns the connection snapshot
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(200, s.manager.Status())
}

// handleVerify prints a small test label
func (s *Server) handleVerify(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := s.manager.Verify(ctx); err != nil {
		c.JSON(502, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

// shippingRequest is shared by the print and preview endpoints
type shippingRequest struct {
	Config    labelformat.LabelConfig     `json:"config" binding:"required"`
	Labels    []labelformat.ShippingLabel `json:"labels"`
	LabelPath string                      `json:"label_path"`
	LogoPath  string                      `json:"logo_path"`
	LogoURL   string                      `json:"logo_url"`
}

func (s *Server) loadShippingRequest(c *gin.Context) (*shippingRequest, *raster.Processed, bool) {
	var req shippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return nil, nil, false
	}

	if req.LabelPath != "" {
		label, err := labelformat.ParseShippingLabelFile(req.LabelPath)
		if err != nil {
			c.JSON(400, gin.H{"error": fmt.Sprintf("failed to load label: %v", err)})
			return nil, nil, false
		}
		req.Labels = append(req.Labels, *label)
	}
	if len(req.Labels) == 0 {
		c.JSON(400, gin.H{"error": "labels or label_path is required"})
		return nil, nil, false
	}

	if err := req.Config.Validate(); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid config: %v", err)})
		return nil, nil, false
	}

	var logo *raster.Processed
	source := req.LogoURL
	if source == "" {
		source = req.LogoPath
	}
	if source != "" {
		data, err := loadBytesFromPathOrURL(source)
		if err != nil {
			c.JSON(400, gin.H{"error": fmt.Sprintf("failed to load logo: %v", err)})
			return nil, nil, false
		}
		logo, err = raster.ProcessBytes(data, req.Config, raster.DefaultOptions())
		if err != nil {
			c.JSON(400, gin.H{"error": fmt.Sprintf("failed to process logo: %v", err)})
			return nil, nil, false
		}
	}

	return &req, logo, true
}

// handlePrintShipping prints a batch of shipping labels
func (s *Server) handlePrintShipping(c *gin.Context) {
	req, logo, ok := s.loadShippingRequest(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout*time.Duration(len(req.Labels)))
	defer cancel()

	count, err := s.batch.PrintShipping(ctx, req.Config, req.Labels, logo)
	s.BroadcastBatch(count, err)
	if err != nil {
		c.JSON(502, gin.H{
			"success":   false,
			"completed": count,
			"error":     err.Error(),
		})
		return
	}

	c.JSON(200, gin.H{"success": true, "completed": count})
}

// designRequest is shared by the print and preview endpoints
type designRequest struct {
	Design     *labelformat.CustomLabelDesign `json:"design"`
	DesignPath string                         `json:"design_path"`
	ImagePath  string                         `json:"image_path"`
	ImageURL   string                         `json:"image_url"`
}

func (s *Server) loadDesignRequest(c *gin.Context) (*labelformat.CustomLabelDesign, *raster.Processed, bool) {
	var req designRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return nil, nil, false
	}

	design := req.Design
	if req.DesignPath != "" {
		loaded, err := labelformat.ParseDesignFile(req.DesignPath)
		if err != nil {
			c.JSON(400, gin.H{"error": fmt.Sprintf("failed to load design: %v", err)})
			return nil, nil, false
		}
		design = loaded
	}
	if design == nil {
		c.JSON(400, gin.H{"error": "design or design_path is required"})
		return nil, nil, false
	}
	if err := design.Validate(); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid design: %v", err)})
		return nil, nil, false
	}

	var img *raster.Processed
	source := req.ImageURL
	if source == "" {
		source = req.ImagePath
	}
	if source != "" {
		data, err := loadBytesFromPathOrURL(source)
		if err != nil {
			c.JSON(400, gin.H{"error": fmt.Sprintf("failed to load image: %v", err)})
			return nil, nil, false
		}
		img, err = raster.ProcessBytes(data, design.Config, raster.DefaultOptions())
		if err != nil {
			c.JSON(400, gin.H{"error": fmt.Sprintf("failed to process image: %v", err)})
			return nil, nil, false
		}
	}

	return design, img, true
}

// handlePrintDesign prints a custom label design
func (s *Server) handlePrintDesign(c *gin.Context) {
	design, img, ok := s.loadDesignRequest(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	count, err := s.batch.Print(ctx, design.Config, []printer.Job{
		printer.DesignJob{Design: design, Image: img},
	})
	s.BroadcastBatch(count, err)
	if err != nil {
		c.JSON(502, gin.H{"success": false, "completed": count, "error": err.Error()})
		return
	}

	c.JSON(200, gin.H{"success": true, "completed": count})
}

// handlePrintImage prints one image on blank stock
func (s *Server) handlePrintImage(c *gin.Context) {
	var req struct {
		Config    labelformat.LabelConfig `json:"config" binding:"required"`
		ImagePath string                  `json:"image_path"`
		ImageURL  string                  `json:"image_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	source := req.ImageURL
	if source == "" {
		source = req.ImagePath
	}
	if source == "" {
		c.JSON(400, gin.H{"error": "image_path or image_url is required"})
		return
	}

	data, err := loadBytesFromPathOrURL(source)
	if err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("failed to load image: %v", err)})
		return
	}

	img, err := raster.ProcessBytes(data, req.Config, raster.DefaultOptions())
	if err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("failed to process image: %v", err)})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	count, err := s.batch.Print(ctx, req.Config, []printer.Job{
		printer.ImageJob{Config: req.Config, Image: img},
	})
	s.BroadcastBatch(count, err)
	if err != nil {
		c.JSON(502, gin.H{"success": false, "completed": count, "error": err.Error()})
		return
	}

	c.JSON(200, gin.H{"success": true, "completed": count})
}

// handlePreviewShipping renders a shipping label preview as PNG
func (s *Server) handlePreviewShipping(c *gin.Context) {
	req, logo, ok := s.loadShippingRequest(c)
	if !ok {
		return
	}

	renderer, err := preview.New(req.Config)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	img, err := renderer.RenderShipping(req.Config, req.Labels[0], logo)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	data, err := preview.PNG(img)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.Data(200, "image/png", data)
}

// handlePreviewDesign renders a design preview as PNG
func (s *Server) handlePreviewDesign(c *gin.Context) {
	design, img, ok := s.loadDesignRequest(c)
	if !ok {
		return
	}

	renderer, err := preview.New(design.Config)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	rendered, err := renderer.RenderDesign(design, img)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	data, err := preview.PNG(rendered)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.Data(200, "image/png", data)
}

// handleCommand handles command execution requests
func (s *Server) handleCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "command is required"})
		return
	}

	result := s.executor.Execute(req.Command)

	if result.Success {
		response := gin.H{
			"success": true,
		}
		if result.Message != "" {
			response["message"] = result.Message
		}
		if result.Data != nil {
			for k, v := range result.Data {
				response[k] = v
			}
		}
		c.JSON(200, response)
	} else {
		c.JSON(400, gin.H{
			"success": false,
			"error":   result.Error,
		})
	}
}

// loadBytesFromPathOrURL reads raw bytes from a file path or URL
func loadBytesFromPathOrURL(pathOrURL string) ([]byte, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		resp, err := http.Get(pathOrURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", pathOrURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch %s: HTTP %d", pathOrURL, resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	}

	return os.ReadFile(pathOrURL)
}

// Run starts the API server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

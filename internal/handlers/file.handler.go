package handlers

import (
	"fileforge/internal/app"
	fileController "fileforge/internal/controllers/files"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type FileHandler struct {
	Handler
	fileController fileController.FileControllerInterface
}

func NewFileHandler(app app.App, router fiber.Router) *FileHandler {
	log := logger.New("handlers").File("file_handler")
	return &FileHandler{
		fileController: app.Controllers.File,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *FileHandler) Register() {
	files := h.router.Group("/files")

	files.Post("", h.createFile)
	files.Post("/upload", h.uploadFile)
	files.Get("", h.listFiles)
	files.Get("/query", h.queryFiles)
	files.Patch("/:id", h.updateFile)
	files.Delete("/:id", h.deleteFile)
}

func (h *FileHandler) createFile(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("createFile")

	var req fileController.CreateFileRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return sendResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	file, err := h.fileController.CreateFile(c.UserContext(), &req)
	if err != nil {
		return sendError(c, log, err, "Failed to create file")
	}

	return sendResponse(c, fiber.StatusCreated, "File created", file)
}

func (h *FileHandler) uploadFile(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("uploadFile")

	header, err := c.FormFile("file")
	if err != nil {
		log.Warn("Missing file part", "error", err)
		return sendResponse(c, fiber.StatusBadRequest, "A file is required", nil)
	}

	body, err := header.Open()
	if err != nil {
		return sendError(c, log, err, "Failed to read upload")
	}
	defer body.Close()

	name := c.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	file, err := h.fileController.UploadFile(c.UserContext(), &fileController.UploadFileRequest{
		UserID:      c.FormValue("userId", c.Query("userId")),
		FolderID:    c.FormValue("folderId"),
		Name:        name,
		Size:        header.Size,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Body:        body,
	})
	if err != nil {
		return sendError(c, log, err, "Failed to upload file")
	}

	return sendResponse(c, fiber.StatusCreated, "File uploaded", file)
}

func (h *FileHandler) listFiles(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listFiles")

	var query fileController.ListFilesQuery
	if err := c.QueryParser(&query); err != nil {
		log.Warn("Invalid query parameters", "error", err)
		return sendResponse(c, fiber.StatusBadRequest, "Invalid query parameters", nil)
	}

	files, err := h.fileController.ListFiles(c.UserContext(), &query)
	if err != nil {
		return sendError(c, log, err, "Failed to list files")
	}

	return sendResponse(c, fiber.StatusOK, "Files retrieved", files)
}

func (h *FileHandler) queryFiles(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("queryFiles")

	params := c.Queries()
	userID := params["userId"]
	delete(params, "userId")

	files, meta, err := h.fileController.QueryFiles(c.UserContext(), userID, params)
	if err != nil {
		return sendError(c, log, err, "Failed to query files")
	}

	return sendPaginated(c, "Files retrieved", files, meta)
}

func (h *FileHandler) updateFile(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("updateFile")

	var req fileController.UpdateFileRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return sendResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	file, err := h.fileController.UpdateFile(c.UserContext(), c.Params("id"), c.Query("userId"), &req)
	if err != nil {
		return sendError(c, log, err, "Failed to update file")
	}

	return sendResponse(c, fiber.StatusOK, "File updated", file)
}

func (h *FileHandler) deleteFile(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("deleteFile")

	file, err := h.fileController.DeleteFile(c.UserContext(), c.Params("id"), c.Query("userId"))
	if err != nil {
		return sendError(c, log, err, "Failed to delete file")
	}

	return sendResponse(c, fiber.StatusOK, "File deleted", file)
}

package handlers

import (
	"fileforge/internal/app"
	folderController "fileforge/internal/controllers/folders"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type FolderHandler struct {
	Handler
	folderController folderController.FolderControllerInterface
}

func NewFolderHandler(app app.App, router fiber.Router) *FolderHandler {
	log := logger.New("handlers").File("folder_handler")
	return &FolderHandler{
		folderController: app.Controllers.Folder,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *FolderHandler) Register() {
	folders := h.router.Group("/folders")

	folders.Post("", h.createFolder)
	folders.Get("", h.listFolders)
	folders.Get("/resolve-path", h.resolvePath)
	folders.Get("/path/:id", h.getPath)
	folders.Get("/:id/recursive-files", h.getRecursiveFiles)
	folders.Patch("/:id", h.updateFolder)
	folders.Delete("/:id", h.deleteFolder)
}

func (h *FolderHandler) createFolder(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("createFolder")

	var req folderController.CreateFolderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return sendResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	folder, err := h.folderController.CreateFolder(c.UserContext(), &req)
	if err != nil {
		return sendError(c, log, err, "Failed to create folder")
	}

	return sendResponse(c, fiber.StatusCreated, "Folder created", folder)
}

func (h *FolderHandler) listFolders(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listFolders")

	folders, err := h.folderController.ListFolders(c.UserContext(), c.Query("userId"), c.Query("parentId"))
	if err != nil {
		return sendError(c, log, err, "Failed to list folders")
	}

	return sendResponse(c, fiber.StatusOK, "Folders retrieved", folders)
}

func (h *FolderHandler) resolvePath(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("resolvePath")

	folderID, err := h.folderController.ResolvePath(c.UserContext(), c.Query("userId"), c.Query("path"))
	if err != nil {
		return sendError(c, log, err, "Failed to resolve path")
	}

	if folderID == nil {
		return sendResponse(c, fiber.StatusNotFound, "Path not found", nil)
	}

	return sendResponse(c, fiber.StatusOK, "Path resolved", fiber.Map{"folderId": folderID})
}

func (h *FolderHandler) getPath(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getPath")

	path, err := h.folderController.GetPath(c.UserContext(), c.Params("id"), c.Query("userId"))
	if err != nil {
		return sendError(c, log, err, "Failed to get folder path")
	}

	return sendResponse(c, fiber.StatusOK, "Folder path retrieved", path)
}

func (h *FolderHandler) getRecursiveFiles(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getRecursiveFiles")

	files, err := h.folderController.GetRecursiveFiles(c.UserContext(), c.Params("id"), c.Query("userId"))
	if err != nil {
		return sendError(c, log, err, "Failed to list folder files")
	}

	return sendResponse(c, fiber.StatusOK, "Folder files retrieved", files)
}

func (h *FolderHandler) updateFolder(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("updateFolder")

	var req folderController.UpdateFolderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return sendResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	folder, err := h.folderController.UpdateFolder(c.UserContext(), c.Params("id"), c.Query("userId"), &req)
	if err != nil {
		return sendError(c, log, err, "Failed to update folder")
	}

	return sendResponse(c, fiber.StatusOK, "Folder updated", folder)
}

func (h *FolderHandler) deleteFolder(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("deleteFolder")

	folder, err := h.folderController.DeleteFolder(c.UserContext(), c.Params("id"), c.Query("userId"))
	if err != nil {
		return sendError(c, log, err, "Failed to delete folder")
	}

	return sendResponse(c, fiber.StatusOK, "Folder deleted", folder)
}

package handlers

import (
	"errors"
	"expvar"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-user-registry/internal/application"
	"github.com/oksasatya/go-user-registry/internal/domain/apperror"
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/pkg/response"
	"github.com/oksasatya/go-user-registry/pkg/validation"
)

// ImageField is the multipart field carrying the profile picture.
const ImageField = "imagenPerfil"

// Counters published under /api/debug/vars.
var userOps = expvar.NewMap("user_operations")

type UserHandler struct {
	Svc           *userapp.Service
	Logger        logrus.FieldLogger
	MaxImageBytes int64
}

func NewUserHandler(svc *userapp.Service, logger logrus.FieldLogger, maxImageBytes int64) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, MaxImageBytes: maxImageBytes}
}

type registerRequest struct {
	Name  string `form:"nombre" binding:"required,nombre"`
	Email string `form:"correo" binding:"required,email"`
	Age   *int   `form:"edad" binding:"required,edad"`
}

type updateRequest struct {
	Name  *string `form:"nombre" binding:"omitempty,nombre"`
	Email *string `form:"correo" binding:"omitempty,email"`
	Age   *int    `form:"edad" binding:"omitempty,edad"`
}

// Register handles POST /registro.
func (h *UserHandler) Register(c *gin.Context) {
	img, err := h.readImage(c)
	if err != nil {
		h.fail(c, err, "Error interno al registrar usuario")
		return
	}
	if img == nil {
		h.fail(c, apperror.New(apperror.MissingImage, "Debes subir una imagen de perfil"), "")
		return
	}

	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Datos inválidos", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		Name:  req.Name,
		Email: req.Email,
		Age:   *req.Age,
		Image: img,
	})
	if err != nil {
		h.fail(c, err, "Error interno al registrar usuario")
		return
	}
	userOps.Add("registered", 1)
	response.Message(c, http.StatusCreated, "Usuario registrado con éxito", u)
}

// List handles GET /usuarios.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Error al obtener usuarios")
		return
	}
	response.JSON(c, http.StatusOK, users)
}

// Get handles GET /usuarios/:id.
func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Error interno al obtener usuario")
		return
	}
	response.JSON(c, http.StatusOK, u)
}

// Update handles PUT /usuarios/:id. Every form field is optional.
func (h *UserHandler) Update(c *gin.Context) {
	img, err := h.readImage(c)
	if err != nil {
		h.fail(c, err, "Error interno al actualizar usuario")
		return
	}

	var req updateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Datos inválidos", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Update(c.Request.Context(), c.Param("id"), userapp.UpdateInput{
		Fields: entity.UserPatch{Name: req.Name, Email: req.Email, Age: req.Age},
		Image:  img,
	})
	if err != nil {
		h.fail(c, err, "Error interno al actualizar usuario")
		return
	}
	userOps.Add("updated", 1)
	response.Message(c, http.StatusOK, "Usuario actualizado correctamente", u)
}

// Delete handles DELETE /usuarios/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	u, err := h.Svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Ocurrió un error en el servidor")
		return
	}
	userOps.Add("deleted", 1)
	response.Message(c, http.StatusOK, "Usuario eliminado", u)
}

// readImage buffers the optional image part. A missing part yields (nil, nil).
func (h *UserHandler) readImage(c *gin.Context) (*userapp.ImageFile, error) {
	fh, err := c.FormFile(ImageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperror.Wrap(apperror.Upload, "La imagen supera el tamaño máximo permitido", err)
		}
		return nil, apperror.Wrap(apperror.Upload, "No se pudo leer la imagen de perfil", err)
	}
	if h.MaxImageBytes > 0 && fh.Size > h.MaxImageBytes {
		return nil, apperror.New(apperror.Upload, "La imagen supera el tamaño máximo permitido")
	}
	data, err := readPart(fh)
	if err != nil {
		return nil, apperror.Wrap(apperror.Upload, "No se pudo leer la imagen de perfil", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &userapp.ImageFile{Filename: fh.Filename, Data: data}, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

// fail maps a tagged error to its status once. internalMsg replaces the
// message of untagged failures so causes never leak to clients.
func (h *UserHandler) fail(c *gin.Context, err error, internalMsg string) {
	ae := apperror.As(err)
	status := StatusFor(ae.Kind)
	msg := ae.Message
	if ae.Kind == apperror.Internal {
		if internalMsg != "" {
			msg = internalMsg
		}
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
		}).Error("request failed")
	} else {
		h.Logger.WithError(err).WithField("kind", ae.Kind.String()).Debug("request rejected")
	}
	userOps.Add("failed_"+ae.Kind.String(), 1)
	response.Error(c, status, msg, ae.Details)
}

// StatusFor is the single mapping from error kind to HTTP status.
func StatusFor(k apperror.Kind) int {
	switch k {
	case apperror.MissingImage, apperror.Upload, apperror.Validation, apperror.InvalidID, apperror.DuplicateEmail:
		return http.StatusBadRequest
	case apperror.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

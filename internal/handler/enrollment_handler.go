package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type enrollmentService interface {
	List(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	Enroll(ctx context.Context, studentID, subjectID string) (*models.EnrollmentResult, error)
	Unenroll(ctx context.Context, studentID, subjectID string) (*models.EnrollmentResult, error)
}

// EnrollmentHandler exposes the enroll and unenroll transitions of a student.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List a student's enrollments
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	enrollments, err := h.enrollments.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Enroll godoc
// @Summary Enroll a student in a subject
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Param subjectId path string true "Subject ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope "STUDENT_NOT_FOUND or SUBJECT_NOT_FOUND"
// @Failure 409 {object} response.Envelope "ALREADY_ENROLLED or NO_AVAILABLE_SLOTS"
// @Failure 422 {object} response.Envelope "CREDIT_LIMIT_EXCEEDED"
// @Failure 503 {object} response.Envelope "TRANSACTION_FAILED"
// @Router /students/{id}/enrollments/{subjectId} [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	result, err := h.enrollments.Enroll(c.Request.Context(), c.Param("id"), c.Param("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Unenroll godoc
// @Summary Remove a student from a subject
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Param subjectId path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "ENROLLMENT_NOT_FOUND"
// @Failure 503 {object} response.Envelope "TRANSACTION_FAILED"
// @Router /students/{id}/enrollments/{subjectId} [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	result, err := h.enrollments.Unenroll(c.Request.Context(), c.Param("id"), c.Param("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightclass/mastery-service/internal/config"
	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
	"github.com/brightclass/mastery-service/internal/services"
	"github.com/brightclass/mastery-service/internal/utils"
	"github.com/brightclass/mastery-service/internal/validator"
)

type HandlerManager struct {
	answerHandler    *AnswerHandler
	scoreHandler     *ScoreHandler
	knowledgeHandler *KnowledgeHandler
	progressHandler  *ProgressHandler
	authMiddleware   *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		answerHandler:    NewAnswerHandler(serviceManager.Submission(), validator, logger),
		scoreHandler:     NewScoreHandler(serviceManager.Score(), serviceManager.Export(), logger),
		knowledgeHandler: NewKnowledgeHandler(serviceManager.Sequence(), validator, logger),
		progressHandler:  NewProgressHandler(serviceManager.Mastery(), serviceManager.Report(), validator, logger),
		authMiddleware:   authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Answer routes
		answers := v1.Group("/answers")
		{
			answers.POST("/submit", hm.answerHandler.SubmitAnswer)
			answers.GET("/:id", hm.answerHandler.GetAnswer)
			answers.DELETE("/:id", hm.answerHandler.DeleteAnswer)
			answers.GET("/assignment/:assignment_id", hm.answerHandler.GetStudentAnswers)

			// Manual grading - Teachers and Admins only
			answers.POST("/:id/grade", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.answerHandler.GradeAnswer)
		}

		// Problem routes
		problems := v1.Group("/problems")
		{
			problems.POST("/:id/regrade", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.answerHandler.ReGradeProblem)
		}

		// Score and statistics routes
		assignments := v1.Group("/assignments")
		{
			assignments.GET("/:assignment_id/completion", hm.scoreHandler.GetCompletionRate)
			assignments.GET("/:assignment_id/accuracy", hm.scoreHandler.GetAccuracyRate)

			// Teachers and Admins only
			assignments.GET("/:assignment_id/overview", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.scoreHandler.GetGradingOverview)
			assignments.GET("/:assignment_id/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.scoreHandler.ExportScoreSheet)
		}

		// Course knowledge sequence routes
		courses := v1.Group("/courses")
		{
			courses.GET("/:course_id/knowledge", hm.knowledgeHandler.ListSequence)

			// Sequence mutations - Teachers and Admins only
			sequenceEdit := courses.Group("/:course_id/knowledge")
			sequenceEdit.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin))
			{
				sequenceEdit.POST("", hm.knowledgeHandler.AppendKnowledge)
				sequenceEdit.PUT("/:knowledge_id/position", hm.knowledgeHandler.MoveKnowledge)
				sequenceEdit.DELETE("/:knowledge_id", hm.knowledgeHandler.RemoveKnowledge)
				sequenceEdit.DELETE("", hm.knowledgeHandler.RemoveKnowledgeBatch)
				sequenceEdit.POST("/copy", hm.knowledgeHandler.CopyKnowledge)
			}
		}

		// Learning progress routes
		progress := v1.Group("/progress")
		{
			progress.POST("/mastery", hm.progressHandler.UpdateMastery)
			progress.GET("", hm.progressHandler.GetStudentSummary)
			progress.GET("/report", hm.progressHandler.GenerateStudyReport)
			progress.GET("/:knowledge_id", hm.progressHandler.GetProgress)
		}
	}
}

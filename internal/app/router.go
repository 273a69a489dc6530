package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"eduhub/internal/app/observability"
	"eduhub/internal/content"
	"eduhub/internal/exam"
	"eduhub/internal/feed"
	"eduhub/internal/notice"
	"eduhub/internal/report"
	"eduhub/internal/store"
	"eduhub/internal/upload"
	"eduhub/internal/user"
)

// NewRouter opens every domain collection on the store and wires the full
// HTTP surface. pool may be nil when running on the in-memory backend.
func NewRouter(cfg Config, st *store.Store, pool *pgxpool.Pool) (http.Handler, error) {
	users, err := store.Open[user.User](st, "users", nil)
	if err != nil {
		return nil, fmt.Errorf("open users: %w", err)
	}
	exams, err := store.Open[exam.Exam](st, "exams", nil)
	if err != nil {
		return nil, fmt.Errorf("open exams: %w", err)
	}
	submissions, err := store.Open[exam.Submission](st, "submissions", nil)
	if err != nil {
		return nil, fmt.Errorf("open submissions: %w", err)
	}
	results, err := store.Open[exam.StudentResult](st, "results", nil)
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	folders, err := store.Open[content.Folder](st, "folders", nil)
	if err != nil {
		return nil, fmt.Errorf("open folders: %w", err)
	}
	contents, err := store.Open[content.StudyContent](st, "contents", nil)
	if err != nil {
		return nil, fmt.Errorf("open contents: %w", err)
	}
	blogPosts, err := store.Open[content.BlogPost](st, "blog_posts", nil)
	if err != nil {
		return nil, fmt.Errorf("open blog posts: %w", err)
	}
	notices, err := store.Open[notice.Notice](st, "notices", nil)
	if err != nil {
		return nil, fmt.Errorf("open notices: %w", err)
	}
	appeals, err := store.Open[notice.Appeal](st, "appeals", nil)
	if err != nil {
		return nil, fmt.Errorf("open appeals: %w", err)
	}
	socialPosts, err := store.Open[feed.SocialPost](st, "social_posts", nil)
	if err != nil {
		return nil, fmt.Errorf("open social posts: %w", err)
	}
	postReports, err := store.Open[feed.PostReport](st, "post_reports", nil)
	if err != nil {
		return nil, fmt.Errorf("open post reports: %w", err)
	}

	userSvc := user.NewService(users, cfg.SessionTTL)
	examSvc := exam.NewService(exams, submissions, results, userSvc, exam.ResultPolicy{
		PassPercent:  cfg.PassPercent,
		MeritPercent: cfg.MeritPercent,
	})
	contentSvc := content.NewService(folders, contents, blogPosts)
	noticeSvc := notice.NewService(notices, appeals)
	feedSvc := feed.NewService(socialPosts, postReports)
	reportSvc := report.NewService(examSvc, userSvc)

	uploads, err := upload.NewDiskStore(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		return nil, err
	}

	userH := user.NewHandler(userSvc)
	examH := exam.NewHandler(examSvc)
	contentH := content.NewHandler(contentSvc)
	noticeH := notice.NewHandler(noticeSvc)
	feedH := feed.NewHandler(feedSvc)
	reportH := report.NewHandler(reportSvc)
	uploadH := upload.NewHandler(uploads)

	collector := observability.NewCollector(pool)
	authLimiter := NewIPRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(collector.Middleware)
	r.Use(CSRFMiddleware(cfg.CSRFEnforced))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(pub chi.Router) {
			pub.Use(RateLimitMiddleware(authLimiter))
			pub.Post("/auth/register", userH.Register)
			pub.Post("/auth/login", userH.Login)
		})

		api.Group(func(secure chi.Router) {
			secure.Use(userSvc.RequireAuth)

			secure.Get("/auth/me", userH.Me)
			secure.Post("/auth/logout", userH.Logout)

			secure.Get("/exams", examH.ListAvailable)
			secure.Post("/exams/{id}/submit", examH.Submit)
			secure.Get("/submissions/{id}", examH.GetSubmission)
			secure.Get("/results/me", examH.MyResults)

			secure.Get("/folders", contentH.ListFolders)
			secure.Get("/folders/{id}/contents", contentH.ListContent)
			secure.Get("/blog", contentH.ListPosts)
			secure.Get("/blog/{id}", contentH.GetPost)

			secure.Get("/notices", noticeH.ListNotices)
			secure.Post("/appeals", noticeH.CreateAppeal)
			secure.Get("/appeals/me", noticeH.MyAppeals)

			secure.Get("/feed", feedH.List)
			secure.Post("/feed", feedH.Create)
			secure.Delete("/feed/{id}", feedH.Delete)
			secure.Post("/feed/{id}/like", feedH.ToggleLike)
			secure.Post("/feed/{id}/report", feedH.Report)

			secure.Post("/uploads", uploadH.Upload)

			secure.Group(func(staff chi.Router) {
				staff.Use(userSvc.RequireRoles(user.RoleAdmin, user.RoleTeacher))

				staff.Get("/admin/exams", examH.ListAll)
				staff.Post("/admin/exams", examH.Create)
				staff.Put("/admin/exams/{id}", examH.Update)
				staff.Delete("/admin/exams/{id}", examH.Delete)
				staff.Post("/admin/exams/{id}/publish", examH.SetPublished)
				staff.Get("/admin/exams/{id}/report", reportH.Summary)
				staff.Get("/admin/exams/{id}/report.xlsx", reportH.ExportExcel)
				staff.Get("/admin/submissions/pending", examH.ListPending)
				staff.Post("/admin/submissions/{id}/grade", examH.Grade)

				staff.Post("/folders", contentH.CreateFolder)
				staff.Put("/folders/{id}", contentH.RenameFolder)
				staff.Delete("/folders/{id}", contentH.DeleteFolder)
				staff.Post("/contents", contentH.CreateContent)
				staff.Put("/contents/{id}", contentH.UpdateContent)
				staff.Delete("/contents/{id}", contentH.DeleteContent)
				staff.Post("/blog", contentH.CreatePost)
				staff.Put("/blog/{id}", contentH.UpdatePost)
				staff.Delete("/blog/{id}", contentH.DeletePost)

				staff.Post("/notices", noticeH.CreateNotice)
				staff.Put("/notices/{id}", noticeH.UpdateNotice)
				staff.Delete("/notices/{id}", noticeH.DeleteNotice)
				staff.Get("/admin/appeals", noticeH.ListAppeals)
				staff.Post("/appeals/{id}/replies", noticeH.Reply)
				staff.Post("/appeals/{id}/resolve", noticeH.Resolve)

				staff.Get("/admin/feed/reports", feedH.ListReports)
				staff.Post("/admin/feed/reports/{id}/resolve", feedH.ResolveReport)
			})

			secure.Group(func(admin chi.Router) {
				admin.Use(userSvc.RequireRoles(user.RoleAdmin))
				admin.Get("/admin/users", userH.List)
				admin.Post("/admin/users", userH.CreateByAdmin)
				admin.Post("/admin/users/{id}/active", userH.SetActive)
			})
		})
	})

	r.Handle(cfg.UploadBaseURL+"/*", http.StripPrefix(cfg.UploadBaseURL+"/", http.FileServer(http.Dir(uploads.Dir()))))

	return r, nil
}

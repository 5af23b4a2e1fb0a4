package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"institute-reviews/cmd/internal/logger"
	"institute-reviews/config"
	"institute-reviews/db"
	"institute-reviews/models"
	"institute-reviews/repositories"
)

// seed 는 config.yaml 의 seed.courses / seed.blogs 를 이름 기준으로 upsert 한다.
// 새 환경에서 리뷰가 가리킬 subject 가 없을 때 한 번 실행한다.
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init("LOG_LEVEL", cfg.Logging.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		logger.ErrorWithFields("seed failed", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.AppConfig) error {
	database, err := db.Init(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	defer db.Disconnect(context.Background())

	courses := repositories.NewCourseRepository(database)
	blogs := repositories.NewBlogRepository(database)

	failed := 0
	for _, c := range cfg.Seed.Courses {
		course := models.Course{Subject: subjectFrom(c.SeedSubject), Duration: c.Duration, Price: c.Price, Language: c.Language}
		extra := bson.M{"duration": course.Duration, "price": course.Price, "language": course.Language}
		if err := upsert(ctx, courses, &course.Subject, extra); err != nil {
			failed++
		}
	}
	for _, b := range cfg.Seed.Blogs {
		blog := models.Blog{Subject: subjectFrom(b.SeedSubject), DoctorID: b.DoctorID}
		if err := upsert(ctx, blogs, &blog.Subject, bson.M{"doctor_id": blog.DoctorID}); err != nil {
			failed++
		}
	}

	logger.InfoWithFields("seed finished", logger.Fields{
		"courses": len(cfg.Seed.Courses),
		"blogs":   len(cfg.Seed.Blogs),
		"failed":  failed,
	})
	if failed > 0 {
		return fmt.Errorf("%d subjects were not seeded", failed)
	}
	return nil
}

func subjectFrom(s config.SeedSubject) models.Subject {
	return models.Subject{
		Name:       s.Name,
		ShortDesc:  s.ShortDesc,
		CategoryID: s.CategoryID,
		ImageKey:   s.ImageKey,
	}
}

func upsert(ctx context.Context, repo *repositories.SubjectRepository, subject *models.Subject, extra bson.M) error {
	res, err := repo.UpsertByName(ctx, subject, extra)
	if err != nil {
		logger.ErrorWithFields("seed upsert failed", logger.Fields{
			"subject_type": repo.Type(),
			"name":         subject.Name,
			"error":        err.Error(),
		})
		return err
	}
	logger.DebugWithFields("seeded subject", logger.Fields{
		"subject_type": repo.Type(),
		"name":         subject.Name,
		"inserted":     res.UpsertedCount,
		"modified":     res.ModifiedCount,
	})
	return nil
}

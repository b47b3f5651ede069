// Command admin runs maintenance operations against a course-content
// deployment: sweeping pending releases, cascade-deleting courses, and
// checking database connectivity.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/learnhub/course-content/pkg/coursecontent"
	"github.com/learnhub/course-content/pkg/coursecontent/config"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL" env-default:"memory"`
	DBSchema    string `env:"DB_SCHEMA" env-default:"coursecontent"`
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  admin sweep <course-id>          retry pending object releases
  admin delete-course <course-id>  cascade-delete a course
  admin delete-lecture <course-id> <lecture-id>
  admin ping-db                    verify postgres connectivity`)
	os.Exit(2)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var envConfig Config
	if err := cleanenv.ReadEnv(&envConfig); err != nil {
		logger.Error("failed to read configuration", "err", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		usage()
	}
	command := os.Args[1]
	args := os.Args[2:]

	if command == "ping-db" {
		if err := config.PingPostgres(envConfig.DatabaseURL, envConfig.DBSchema); err != nil {
			logger.Error("database ping failed", "err", err)
			os.Exit(1)
		}
		fmt.Println("database ok")
		return
	}

	ctx := context.Background()
	svc, err := buildService(ctx)
	if err != nil {
		logger.Error("failed to build service", "err", err)
		os.Exit(1)
	}

	switch command {
	case "sweep":
		courseID := parseID(args, 0)
		released, err := svc.SweepPendingReleases(ctx, courseID)
		if err != nil {
			logger.Error("sweep failed", "course_id", courseID, "err", err)
			os.Exit(1)
		}
		fmt.Printf("released %d pending objects\n", released)

	case "delete-course":
		courseID := parseID(args, 0)
		if err := svc.DeleteCourseCascade(ctx, courseID); err != nil {
			logger.Error("cascade delete failed", "course_id", courseID, "err", err)
			os.Exit(1)
		}
		fmt.Println("course deleted")

	case "delete-lecture":
		courseID := parseID(args, 0)
		lectureID := parseID(args, 1)
		if err := svc.DeleteLectureCascade(ctx, courseID, lectureID); err != nil {
			logger.Error("cascade delete failed", "lecture_id", lectureID, "err", err)
			os.Exit(1)
		}
		fmt.Println("lecture deleted")

	default:
		usage()
	}
}

// buildService assembles the service from the same environment variables
// the server reads, so admin commands act on the same deployment.
func buildService(ctx context.Context) (coursecontent.Service, error) {
	serverConfig, err := config.Load(config.WithEnv(""))
	if err != nil {
		return nil, err
	}
	return serverConfig.BuildService(ctx)
}

func parseID(args []string, index int) uuid.UUID {
	if index >= len(args) {
		usage()
	}
	id, err := uuid.Parse(args[index])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid id %q: %v\n", args[index], err)
		os.Exit(1)
	}
	return id
}

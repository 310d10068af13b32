package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/render"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

func main() {
	out := pflag.StringP("out", "o", "week_preview.png", "куда сохранить картинку")
	pflag.Parse()

	now := time.Now()

	slot := func(day time.Weekday, start, end string) model.Schedule {
		s := model.Schedule{Weekday: day}
		s.StartHour, _ = model.ParseClock(start)
		s.EndHour, _ = model.ParseClock(end)
		return s
	}

	// Тестовые посты: открытый, заполненный и скрытый
	posts := []*model.Post{
		{
			ID:         uuid.New(),
			Subject:    "Математика",
			Schedules:  []model.Schedule{slot(time.Monday, "10:00", "12:00"), slot(time.Wednesday, "14:00", "15:30")},
			StartTime:  now.AddDate(0, 0, -7),
			EndTime:    now.AddDate(0, 3, 0),
			MaxStudent: 5,
			Visibility: true,
		},
		{
			ID:              uuid.New(),
			Subject:         "Физика",
			Schedules:       []model.Schedule{slot(time.Tuesday, "16:00", "17:00"), slot(time.Thursday, "16:00", "17:30")},
			StartTime:       now.AddDate(0, 0, -7),
			EndTime:         now.AddDate(0, 3, 0),
			MaxStudent:      2,
			ApprovedStudent: 2,
		},
		{
			ID:         uuid.New(),
			Subject:    "Английский язык для продолжающих",
			Schedules:  []model.Schedule{slot(time.Saturday, "09:00", "10:30")},
			StartTime:  now.AddDate(0, 0, -7),
			EndTime:    now.AddDate(0, 3, 0),
			MaxStudent: 4,
		},
	}

	imageData, err := render.WeekImage("Тестовая неделя", render.PostBlocks(posts, now), now)
	if err != nil {
		fmt.Printf("Ошибка генерации изображения: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, imageData, 0644); err != nil {
		fmt.Printf("Ошибка сохранения файла: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Изображение сохранено в %s\n", *out)
}

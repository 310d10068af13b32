// Package render рисует недельное расписание постов и записей в PNG.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Размеры и отступы
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 120
	dayPaddingX      = 8
	minBlockHeight   = 8.0
	blockRadius      = 6.0
	shadowOffset     = 3.0
	totalDaysInWeek  = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 20
	maxLabelRunes    = 20
	minHeightForText = 25.0
)

// Цветовая схема
var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 220}
	hourLabelColor = color.RGBA{110, 115, 120, 200}
	hourLineColor  = color.NRGBA{150, 150, 150, 255}
	todayBgColor   = color.NRGBA{255, 99, 71, 125}
	evenDayColor   = color.NRGBA{240, 240, 240, 255}
	oddDayColor    = color.NRGBA{220, 220, 220, 255}

	blockOpenColor     = color.RGBA{133, 193, 85, 220}
	blockFullColor     = color.RGBA{255, 182, 193, 255}
	blockClosedColor   = color.RGBA{158, 158, 158, 200}
	blockTextColor     = color.RGBA{20, 24, 28, 230}
	blockFullTextColor = color.RGBA{120, 40, 50, 255}
	blockShadowColor   = color.RGBA{0, 0, 0, 20}

	legendTextColor = color.RGBA{90, 95, 100, 220}
)

// BlockState определяет цвет блока
type BlockState int

const (
	BlockOpen   BlockState = iota // можно записаться
	BlockFull                     // мест нет или запись подтверждена
	BlockClosed                   // скрыт, закончился или запись ждёт решения
)

// Block один слот на сетке недели
type Block struct {
	Schedule model.Schedule
	Label    string
	State    BlockState
}

// hourRange диапазон часов для отображения
type hourRange struct {
	start int
	end   int
	total int
}

// PostBlocks превращает слоты постов в блоки, подпись - предмет и занятость мест
func PostBlocks(posts []*model.Post, now time.Time) []Block {
	var blocks []Block
	for _, post := range posts {
		state := BlockOpen
		switch {
		case !post.Live(now):
			state = BlockClosed
		case post.IsFull():
			state = BlockFull
		}
		label := fmt.Sprintf("%s %d/%d", post.Subject, post.ApprovedStudent, post.MaxStudent)
		for _, s := range post.Schedules {
			blocks = append(blocks, Block{Schedule: s, Label: label, State: state})
		}
	}
	return blocks
}

// BookingBlocks блоки по снимкам расписания активных записей
func BookingBlocks(bookings []*model.Booking) []Block {
	var blocks []Block
	for _, b := range bookings {
		if !b.Status.Active() {
			continue
		}
		state := BlockClosed
		if b.Status == model.BookingStatusConfirmed {
			state = BlockFull
		}
		for _, s := range b.Schedules {
			blocks = append(blocks, Block{Schedule: s, Label: b.Subject, State: state})
		}
	}
	return blocks
}

// WeekImage рисует неделю Пн-Вс с блоками. Если today не нулевое, его день подсвечивается.
func WeekImage(title string, blocks []Block, today time.Time) ([]byte, error) {
	hours := calculateHourRange(blocks)

	dc := createCanvas()
	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, title)
	drawHourLabels(dc, hours, cellHeight)

	byDay := groupByDay(blocks)
	for column := 0; column < totalDaysInWeek; column++ {
		weekday := columnWeekday(column)
		x := float64(leftLabelsWidth + column*dayWidth)
		y := float64(headerHeight)
		highlight := !today.IsZero() && today.Weekday() == weekday

		drawDayBackground(dc, x, y, dayWidth, dayHeight, column, highlight)
		drawDayHeader(dc, weekday, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, block := range byDay[weekday] {
			drawBlock(dc, block, x, y, dayWidth, hours, cellHeight)
		}
	}

	drawLegend(dc, dayWidth)
	return encodeImage(dc)
}

// columnWeekday неделя начинается с понедельника
func columnWeekday(column int) time.Weekday {
	return time.Weekday((column + 1) % totalDaysInWeek)
}

func groupByDay(blocks []Block) map[time.Weekday][]Block {
	byDay := make(map[time.Weekday][]Block)
	for _, b := range blocks {
		byDay[b.Schedule.Weekday] = append(byDay[b.Schedule.Weekday], b)
	}
	return byDay
}

// calculateHourRange определяет диапазон часов для отображения
func calculateHourRange(blocks []Block) hourRange {
	minHour := 24
	maxHour := 0

	for _, b := range blocks {
		startH := b.Schedule.StartHour.Hour()
		endH := b.Schedule.EndHour.Hour()
		if b.Schedule.EndHour.Minute() > 0 {
			endH++
		}
		if startH < minHour {
			minHour = startH
		}
		if endH > maxHour {
			maxHour = endH
		}
	}

	if minHour == 24 {
		minHour = defaultMinHour
		maxHour = defaultMaxHour
	}

	startHour := minHour - hourPaddingTop
	endHour := maxHour + hourPaddingBot
	if startHour < 0 {
		startHour = 0
	}
	if endHour > 24 {
		endHour = 24
	}

	return hourRange{
		start: startHour,
		end:   endHour,
		total: endHour - startHour,
	}
}

func createCanvas() *gg.Context {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	return dc
}

func drawHeader(dc *gg.Context, title string) {
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(leftLabelsWidth), float64(headerHeight)/4, 0, 0.5)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	dc.SetColor(hourLabelColor)
	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		label := fmt.Sprintf("%02d:00", hours.start+i)
		dc.DrawStringAnchored(label, float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, column int, today bool) {
	switch {
	case today:
		dc.SetColor(todayBgColor)
	case column%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, weekday time.Weekday, x, y float64, dayWidth int) {
	dc.SetColor(textColor)
	dc.DrawStringAnchored(weekday.String()[:3], x+float64(dayWidth)/2, y-20, 0.5, 0.5)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawBlock(dc *gg.Context, block Block, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	start := float64(block.Schedule.StartHour) / 60.0
	end := float64(block.Schedule.EndHour) / 60.0

	blockY := y + (start-float64(hours.start))*cellHeight
	blockHeight := (end - start) * cellHeight
	if blockHeight < minBlockHeight {
		blockHeight = minBlockHeight
	}

	fill := blockColor(block.State)
	width := float64(dayWidth) - float64(dayPaddingX*2)

	// Тень
	dc.SetColor(blockShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, blockY+2+shadowOffset, width, blockHeight-4, blockRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, blockY+2, width, blockHeight-4, blockRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, blockY+2, width, blockHeight-4, blockRadius)
	dc.Stroke()

	txtColor := blockTextColor
	if block.State == BlockFull {
		txtColor = blockFullTextColor
	}
	dc.SetColor(txtColor)
	txtX := x + dayPaddingX + 8
	txtY := blockY + 18
	dc.DrawStringAnchored(block.Schedule.StartHour.String()+"-"+block.Schedule.EndHour.String(), txtX, txtY, 0, 0)

	if block.Label != "" && blockHeight > minHeightForText {
		dc.DrawStringAnchored(truncate(block.Label, maxLabelRunes), txtX, txtY+16, 0, 0)
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

func blockColor(state BlockState) color.RGBA {
	switch state {
	case BlockOpen:
		return blockOpenColor
	case BlockFull:
		return blockFullColor
	default:
		return blockClosedColor
	}
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + totalDaysInWeek*dayWidth + 10)
	legendY := float64(imageHeight) - 100.0

	items := []struct {
		label string
		clr   color.Color
	}{
		{"Open", blockOpenColor},
		{"Full", blockFullColor},
		{"Closed", blockClosedColor},
	}

	boxW, boxH := 20.0, 14.0
	liY := legendY + 22
	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(legendX, liY, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(legendTextColor)
		dc.DrawStringAnchored(item.label, legendX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}

// encodeImage кодирует изображение в PNG
func encodeImage(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

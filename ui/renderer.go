package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"torus-snake/game"
	"torus-snake/game/types"
)

const (
	borderPadding = 10
	statsPanel    = 220
	footerHeight  = 40
)

type Renderer struct {
	grid     types.Grid
	cellSize int32

	screenWidth  int32
	screenHeight int32
	offsetX      int32
	offsetY      int32
	boardWidth   int32
	boardHeight  int32
}

func NewRenderer(grid types.Grid) *Renderer {
	r := &Renderer{grid: grid}
	r.UpdateDimensions()
	return r
}

// WindowSize is the initial window size for a tile size in pixels
func WindowSize(grid types.Grid, tile int) (int32, int32) {
	w := int32(grid.Width*tile) + 2*borderPadding + statsPanel
	h := int32(grid.Height*tile) + 2*borderPadding + footerHeight
	return w, h
}

func (r *Renderer) UpdateDimensions() {
	r.screenWidth = int32(rl.GetScreenWidth())
	r.screenHeight = int32(rl.GetScreenHeight())

	availW := r.screenWidth - statsPanel - 2*borderPadding
	availH := r.screenHeight - footerHeight - 2*borderPadding
	r.cellSize = max(1, min(availW/int32(r.grid.Width), availH/int32(r.grid.Height)))

	r.boardWidth = r.cellSize * int32(r.grid.Width)
	r.boardHeight = r.cellSize * int32(r.grid.Height)
	r.offsetX = borderPadding
	r.offsetY = borderPadding
}

func color(c Color) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, 255)
}

func (r *Renderer) cell(p types.Point) (int32, int32) {
	return r.offsetX + int32(p.X)*r.cellSize, r.offsetY + int32(p.Y)*r.cellSize
}

func (r *Renderer) Draw(v View) {
	r.UpdateDimensions()
	rl.BeginDrawing()
	rl.ClearBackground(rl.RayWhite)

	r.drawBoard()
	if v.Frame.SessionID != "" {
		r.drawFruit(v.Frame.Fruit)
		r.drawSnake(v.Frame.Snake)
	}

	fontSize := max(12, r.cellSize/3)
	score := fmt.Sprintf("Score: %d", v.Frame.Score)
	rl.DrawText(score, r.offsetX, r.offsetY+r.boardHeight+8, fontSize, color(TextColor))

	if v.Frame.State != game.Alive {
		r.drawPrompt(v, fontSize)
	}
	r.drawStatsPanel(v)
	rl.EndDrawing()
}

func (r *Renderer) drawBoard() {
	for x := 0; x < r.grid.Width; x++ {
		for y := 0; y < r.grid.Height; y++ {
			px, py := r.cell(types.Point{X: x, Y: y})
			rl.DrawRectangle(px, py, r.cellSize, r.cellSize, color(TileColor(x, y)))
		}
	}
}

func (r *Renderer) drawFruit(p types.Point) {
	px, py := r.cell(p)
	half := r.cellSize / 2
	rl.DrawCircle(px+half, py+half, float32(r.cellSize)*0.4, color(FruitColor))
}

func (r *Renderer) drawSnake(body []types.Point) {
	// tail first so the head ends up on top
	for i := len(body) - 1; i > 0; i-- {
		px, py := r.cell(body[i])
		inset := r.cellSize / 10
		rl.DrawRectangle(px+inset, py+inset, r.cellSize-2*inset, r.cellSize-2*inset, color(SegmentColor(i)))
	}
	if len(body) == 0 {
		return
	}

	px, py := r.cell(body[0])
	half := r.cellSize / 2
	rl.DrawCircle(px+half, py+half, float32(half), color(HeadColor))
	eye := float32(max(2, r.cellSize/10))
	rl.DrawCircle(px+r.cellSize/3, py+r.cellSize/3, eye, color(EyeColor))
	rl.DrawCircle(px+2*r.cellSize/3, py+r.cellSize/3, eye, color(EyeColor))
}

func (r *Renderer) drawPrompt(v View, fontSize int32) {
	rl.DrawRectangle(r.offsetX, r.offsetY, r.boardWidth, r.boardHeight, rl.NewColor(255, 255, 255, 160))

	lines := []string{"Play Snake", "Space or Enter to start, q to quit"}
	if v.Last != nil {
		lines = append([]string{fmt.Sprintf("Game over! Score %d", v.Last.Score)}, lines...)
	}
	y := r.offsetY + r.boardHeight/2 - int32(len(lines))*fontSize
	for i, line := range lines {
		size := fontSize
		if i == len(lines)-2 {
			size = fontSize * 2
		}
		w := rl.MeasureText(line, size)
		rl.DrawText(line, r.offsetX+(r.boardWidth-w)/2, y, size, color(TextColor))
		y += size + 6
	}
}

func (r *Renderer) drawStatsPanel(v View) {
	statsX := r.offsetX + r.boardWidth + borderPadding*2
	statsY := r.offsetY
	fontSize := int32(18)
	lineHeight := fontSize + 6

	rl.DrawText("High Scores", statsX, statsY, fontSize, color(TextColor))
	statsY += lineHeight
	rl.DrawText(fmt.Sprintf("Best: %d", v.Best), statsX+5, statsY, fontSize, color(TextColor))
	statsY += lineHeight
	rl.DrawText(fmt.Sprintf("Games: %d", v.Games), statsX+5, statsY, fontSize, color(TextColor))
	statsY += lineHeight
	rl.DrawText(fmt.Sprintf("Avg: %.2f", v.Average), statsX+5, statsY, fontSize, color(TextColor))
	statsY += lineHeight * 2

	r.drawScoreGraph(v, statsX, statsY, statsPanel-2*borderPadding, r.boardHeight/3)
}

func (r *Renderer) drawScoreGraph(v View, x, y, width, height int32) {
	rl.DrawRectangleLines(x, y, width, height, color(TextColor))
	if len(v.Scores) < 2 {
		return
	}

	top := max(1, v.Best)
	line := color(SegmentColor(0))
	for j := 1; j < len(v.Scores); j++ {
		x1 := x + int32(float32(width)*float32(j-1)/float32(maxScores))
		y1 := y + height - int32(float32(height)*float32(v.Scores[j-1])/float32(top))
		x2 := x + int32(float32(width)*float32(j)/float32(maxScores))
		y2 := y + height - int32(float32(height)*float32(v.Scores[j])/float32(top))
		rl.DrawLine(x1, y1, x2, y2, line)
	}

	avgY := y + height - int32(float32(height)*float32(v.Average)/float32(top))
	for dx := x; dx < x+width; dx += 5 {
		rl.DrawLine(dx, avgY, dx+2, avgY, color(FruitColor))
	}
}

var keyNames = map[int32]string{
	rl.KeyUp:    "ArrowUp",
	rl.KeyDown:  "ArrowDown",
	rl.KeyLeft:  "ArrowLeft",
	rl.KeyRight: "ArrowRight",
	rl.KeyW:     "w",
	rl.KeyA:     "a",
	rl.KeyS:     "s",
	rl.KeyD:     "d",
	rl.KeyH:     "h",
	rl.KeyJ:     "j",
	rl.KeyK:     "k",
	rl.KeyL:     "l",
}

// PressedKeys returns the names of direction keys pressed this frame
func PressedKeys() []string {
	var out []string
	for code, name := range keyNames {
		if rl.IsKeyPressed(code) {
			out = append(out, name)
		}
	}
	return out
}

// StartPressed reports Space or Enter
func StartPressed() bool {
	return rl.IsKeyPressed(rl.KeySpace) || rl.IsKeyPressed(rl.KeyEnter)
}

// QuitPressed reports q; Escape is handled by raylib itself
func QuitPressed() bool {
	return rl.IsKeyPressed(rl.KeyQ)
}

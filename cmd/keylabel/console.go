package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lewtec/keylabel/annotation"
	"github.com/lewtec/keylabel/internal/domain"
)

const consoleHelp = `commands:
  show | images | progress | help | quit
  next [n] | prev [n] | goto i (-1 is the last image) | all n | sync
  mode move|add|delete | format standard|coco | side name
  down x y | drag x y | up | hover x y
  add x y | del i | move i x y | vis i v | default-vis v | clear
  undo | redo | copy-prev | copy-prev-all | batch n
  save | saveas file | export format dest
  labels {0: 'Nose', ...}`

// console runs text commands against an engine. Commands apply to the
// active side.
type console struct {
	engine *annotation.Engine
	out    io.Writer
}

// exec runs one line and reports whether the session should end
func (c *console) exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false
	}
	e := c.engine
	name, args := fields[0], fields[1:]
	var r annotation.Result
	var err error
	switch name {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(c.out, consoleHelp)
		return false
	case "show":
		c.show()
		return false
	case "images":
		images, _ := e.Images("")
		for i, img := range images {
			fmt.Fprintf(c.out, "%d\t%s\n", i, img)
		}
		return false
	case "progress":
		r = e.Progress("")
	case "next", "prev":
		n := 1
		if len(args) > 0 {
			n, err = strconv.Atoi(args[0])
		}
		if name == "prev" {
			n = -n
		}
		if err == nil {
			r = e.Navigate("", n)
		}
	case "goto":
		var i int
		if i, err = intArg(args, 0); err == nil {
			r = e.NavigateTo("", i)
		}
	case "all":
		var n int
		if n, err = intArg(args, 0); err == nil {
			r = e.NavigateAll(n)
		}
	case "sync":
		r = e.SyncByFilename()
	case "mode":
		r = e.SetMode(annotation.Mode(strArg(args, 0)))
	case "format":
		r = e.SetFormatMode(annotation.FormatMode(strArg(args, 0)))
	case "side":
		r = e.SetActiveSide(strArg(args, 0))
	case "down", "drag", "hover", "add":
		var x, y float64
		if x, y, err = pointArgs(args, 0); err == nil {
			switch name {
			case "down":
				r = e.PointerDown("", x, y)
			case "drag":
				r = e.PointerDrag("", x, y)
			case "hover":
				r = e.Hover("", x, y)
			default:
				r = e.Add("", x, y)
			}
		}
	case "up":
		r = e.PointerUp("")
	case "del":
		var i int
		if i, err = intArg(args, 0); err == nil {
			r = e.DeleteAt("", i)
		}
	case "move":
		var i int
		var x, y float64
		if i, err = intArg(args, 0); err == nil {
			if x, y, err = pointArgs(args, 1); err == nil {
				r = e.Move("", i, x, y)
			}
		}
	case "vis":
		var i, v int
		if i, err = intArg(args, 0); err == nil {
			if v, err = intArg(args, 1); err == nil {
				r = e.SetVisibility("", i, domain.Visibility(v))
			}
		}
	case "default-vis":
		var v int
		if v, err = intArg(args, 0); err == nil {
			r = e.SetDefaultVisibility(domain.Visibility(v))
		}
	case "clear":
		r = e.Clear("")
	case "undo":
		r = e.Undo("")
	case "redo":
		r = e.Redo("")
	case "copy-prev":
		r = e.CopyFromPrevious("")
	case "copy-prev-all":
		r = e.CopyFromPreviousAll()
	case "batch":
		var n int
		if n, err = intArg(args, 0); err == nil {
			r = e.BatchCopy("", n)
		}
	case "save":
		r = e.Save("")
	case "saveas":
		r = e.SaveAs("", strArg(args, 0))
	case "export":
		r = e.Export("", annotation.ExportFormat(strArg(args, 0)), strArg(args, 1))
	case "labels":
		r = e.ApplyKeypointLabels(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "labels")))
	default:
		fmt.Fprintf(c.out, "unknown command %q, type help\n", name)
		return false
	}
	if err != nil {
		fmt.Fprintf(c.out, "invalid arguments for %s: %v\n", name, err)
		return false
	}
	if r.Message != "" {
		fmt.Fprintln(c.out, r)
	}
	return false
}

func (c *console) show() {
	view, err := c.engine.Current("")
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	marker := ""
	if view.Unsaved {
		marker = " *"
	}
	fmt.Fprintf(c.out, "[%s] %d/%d %s (%dx%d)%s\n", view.Side, view.Index+1, view.Total, view.Image, view.Width, view.Height, marker)
	kps, _ := c.engine.Keypoints("")
	for _, kp := range kps {
		if !kp.Present {
			fmt.Fprintf(c.out, "  %d %s: absent\n", kp.Index, kp.Name)
			continue
		}
		line := fmt.Sprintf("  %d %s: %g, %g", kp.Index, kp.Name, kp.X, kp.Y)
		if kp.HasVisibility {
			line += " " + kp.Visibility.Label()
		}
		if !kp.Plausible {
			line += " (out of image)"
		}
		fmt.Fprintln(c.out, line)
	}
}

func strArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func intArg(args []string, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i+1)
	}
	return strconv.Atoi(args[i])
}

func floatArg(args []string, i int) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i+1)
	}
	return strconv.ParseFloat(args[i], 64)
}

func pointArgs(args []string, i int) (float64, float64, error) {
	x, err := floatArg(args, i)
	if err != nil {
		return 0, 0, err
	}
	y, err := floatArg(args, i+1)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

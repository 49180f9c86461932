package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"
)

const unknownTotalStep = 1 << 20

// progressBar 在终端上原地刷新一行进度，总大小未知时只显示已处理字节数。
type progressBar struct {
	w     io.Writer
	label string
	bar   progress.Model
	last  int64
	drawn bool
}

func newProgressBar(w io.Writer, label string) *progressBar {
	return &progressBar{
		w:     w,
		label: label,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		last:  -1,
	}
}

// Update 满足 remote.ProgressFunc 与 archive.ProgressFunc。
func (p *progressBar) Update(done, total int64) {
	if total <= 0 {
		step := done / unknownTotalStep
		if step == p.last {
			return
		}
		p.last = step
		p.drawn = true
		fmt.Fprintf(p.w, "\r%s %s", p.label, humanize.Bytes(uint64(done)))
		return
	}

	pct := float64(done) / float64(total)
	if pct > 1 {
		pct = 1
	}
	step := int64(pct * 100)
	if step == p.last {
		return
	}
	p.last = step
	p.drawn = true
	fmt.Fprintf(p.w, "\r%s %s %s / %s", p.label, p.bar.ViewAs(pct), humanize.Bytes(uint64(done)), humanize.Bytes(uint64(total)))
	if step == 100 {
		p.Done()
	}
}

// Done 结束当前进度行。
func (p *progressBar) Done() {
	if p == nil || !p.drawn {
		return
	}
	fmt.Fprintln(p.w)
	p.drawn = false
}

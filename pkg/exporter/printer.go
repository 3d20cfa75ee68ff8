package exporter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"narcheck/pkg/narinfo"
)

// PrintInfo 以人类可读的形式打印一条记录
func PrintInfo(w io.Writer, info *narinfo.NarInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "StorePath:\t%s\n", info.StorePath)
	fmt.Fprintf(tw, "URL:\t%s\n", info.URL)
	fmt.Fprintf(tw, "Compression:\t%s\n", info.Compression)
	fmt.Fprintf(tw, "FileHash:\t%s\n", info.FileHash)
	fmt.Fprintf(tw, "FileSize:\t%s (%d)\n", fmtSize(info.FileSize), info.FileSize)
	fmt.Fprintf(tw, "NarHash:\t%s\n", info.NarHash)
	fmt.Fprintf(tw, "NarSize:\t%s (%d)\n", fmtSize(info.NarSize), info.NarSize)
	if info.HasDeriver() {
		fmt.Fprintf(tw, "Deriver:\t%s\n", info.Deriver)
	} else {
		fmt.Fprintf(tw, "Deriver:\t-\n")
	}
	fmt.Fprintf(tw, "Sig:\t%s\n", info.Signature)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nReferences (%d):\n", len(info.References))
	tw = tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  HASH\tNAME\n")
	for _, ref := range info.References {
		fmt.Fprintf(tw, "  %s\t%s\n", ref.HashPart(), ref.Name())
	}
	return tw.Flush()
}

// PrintReport 打印 check 的汇总表
// 只列出失败的文档，成功的只计数
func PrintReport(w io.Writer, r *Report) error {
	fmt.Fprintf(w, "Checked %d narinfo: %d valid, %d invalid\n", r.Total, r.Valid, r.Invalid)

	if r.Invalid > 0 {
		fmt.Fprintf(w, "\n")
		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		fmt.Fprintf(tw, "NAME\tKIND\tERROR\n")
		for _, d := range r.Documents {
			if d.Error == nil {
				continue
			}
			kind := d.Error.Kind
			if kind == "" {
				kind = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, kind, d.Error.Message)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(r.Dangling) > 0 {
		fmt.Fprintf(w, "\nDangling references (%d):\n", len(r.Dangling))
		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		fmt.Fprintf(tw, "FROM\tMISSING\n")
		for _, d := range r.Dangling {
			fmt.Fprintf(tw, "%s\t%s\n", d.From, d.Ref)
		}
		return tw.Flush()
	}
	return nil
}

// PrintError 打印单个错误
func PrintError(w io.Writer, name string, err error) {
	r := NewErrorReport(err)
	if r.Kind != "" {
		fmt.Fprintf(w, "%s: [%s] %s\n", name, r.Kind, r.Message)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", name, r.Message)
}

func fmtSize(s uint64) string {
	if s < 1024 {
		return fmt.Sprintf("%dB", s)
	} else if s < 1024*1024 {
		return fmt.Sprintf("%.1fKB", float64(s)/1024)
	} else if s < 1024*1024*1024 {
		return fmt.Sprintf("%.2fMB", float64(s)/1024/1024)
	}
	return fmt.Sprintf("%.2fGB", float64(s)/1024/1024/1024)
}

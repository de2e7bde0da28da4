//go:build ignore

// Writes a deterministic fixture file for `docman stub-server --seed`.
package main

import (
	"fmt"
	mrand "math/rand"
	"os"
	"time"

	"github.com/mithrel/docman/internal/server"
	"github.com/mithrel/docman/internal/util"
	"github.com/mithrel/docman/pkg/api"
	"gopkg.in/yaml.v3"
)

var heads = map[string][]string{
	"Finance": {"Invoice", "Receipt", "Statement"},
	"HR":      {"Policy", "Payslip", "Onboarding"},
	"Legal":   {"Contract", "NDA"},
}

func main() {
	// Deterministic seed for reproducible output
	mr := mrand.New(mrand.NewSource(42))

	tags := make([]string, 12)
	for i := range tags {
		tags[i] = fmt.Sprintf("tag%02d", i+1)
	}
	majors := []string{"Finance", "HR", "Legal"}
	users := []string{"alice", "bob", "carol"}

	const total = 200
	var fx server.Fixtures
	base := time.Now()

	for i := 0; i < total; i++ {
		major := majors[mr.Intn(len(majors))]
		minors := heads[major]
		// 0–3 unique tags
		chosen := sampleTags(mr, tags, mr.Intn(4))
		docTags := make([]api.Tag, 0, len(chosen))
		for _, t := range chosen {
			docTags = append(docTags, api.Tag{TagName: t})
		}
		fx.Documents = append(fx.Documents, api.DocumentRecord{
			MajorHead:       major,
			MinorHead:       minors[mr.Intn(len(minors))],
			DocumentDate:    util.FormatDate(base.AddDate(0, 0, -(i*2 + mr.Intn(2)))),
			DocumentRemarks: fmt.Sprintf("sample document %03d", i+1),
			UploadedBy:      users[mr.Intn(len(users))],
			Tags:            docTags,
		})
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(fx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func sampleTags(r *mrand.Rand, src []string, k int) []string {
	if k <= 0 {
		return nil
	}
	idx := r.Perm(len(src))[:k]
	out := make([]string, 0, k)
	for _, i := range idx {
		out = append(out, src[i])
	}
	return out
}

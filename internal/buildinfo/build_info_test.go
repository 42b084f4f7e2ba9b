package buildinfo

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBuildInfo(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "BuildInfo Suite")
}

var _ = Describe("BuildInfo", func() {
	It("should format the build", func() {
		i := BuildInfo{Version: "v0.1.0", CommitHash: "abc123", BuildDate: "2026-10-14"}
		Expect(i.String()).To(HavePrefix("ddflow version v0.1.0 (abc123) built on 2026-10-14 with go"))
	})
})

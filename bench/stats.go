package bench

import (
	"time"

	"github.com/klauspost/cpuid/v2"
)

// Stats describe the machine a benchmark ran on. ChaCha20 has no
// dedicated instructions, but AES-NI and SSE3 are a good proxy for
// "modern enough crypto performance".
type Stats struct {
	Time          time.Time `json:"time"`
	CPUBrandName  string    `json:"cpu_brand_name"`
	LogicalCores  int       `json:"logical_cores"`
	PhysicalCores int       `json:"physical_cores"`
	HasAESNI      bool      `json:"has_aesni"`
	HasSSE3       bool      `json:"has_sse3"`
}

func FetchStats() Stats {
	return Stats{
		Time:          time.Now(),
		CPUBrandName:  cpuid.CPU.BrandName,
		LogicalCores:  cpuid.CPU.LogicalCores,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		HasAESNI:      cpuid.CPU.Supports(cpuid.AESNI),
		HasSSE3:       cpuid.CPU.Supports(cpuid.SSE3),
	}
}

// Package sample provides the bundled demonstration case. Values are fixed
// so repeated loads yield identical accounts, rings and insights.
package sample

import "github.com/smurfatcher/harrier/internal/domain"

func intPtr(v int) *int { return &v }

// Case returns the current sample case with its full account, ring and
// edge collections. Callers receive fresh copies on every invocation.
func Case() (domain.CaseRun, []domain.Account, []domain.Ring, []domain.GraphEdge) {
	history := History()
	return history[0], Accounts(), Rings(), Edges()
}

// History returns the bundled case history, newest first.
func History() []domain.CaseRun {
	return []domain.CaseRun{
		{
			ID: "CASE-2026-0042", Date: "2026-08-14", FileName: "transactions_q2.csv",
			DatasetSize: 14200, NodeCount: 342, EdgeCount: 1287, TxCount: 14200,
			SuspiciousCount: 18, RingCount: 5, ProcessingTime: 2.3, RiskExposure: 78,
			TimeWindow: "2026-06-01 to 2026-08-14",
			TopPatterns: []string{domain.PatternCycle, domain.PatternFanIn, domain.PatternLayering},
			RiskLevel:   domain.RiskHigh,
		},
		{
			ID: "CASE-2026-0041", Date: "2026-07-28", FileName: "wire_transfers_jul.csv",
			DatasetSize: 8400, NodeCount: 210, EdgeCount: 890, TxCount: 8400,
			SuspiciousCount: 7, RingCount: 2, ProcessingTime: 1.1, RiskExposure: 52,
			TimeWindow: "2026-07-01 to 2026-07-28",
			TopPatterns: []string{domain.PatternFanOut, domain.PatternShell},
			RiskLevel:   domain.RiskMedium,
		},
		{
			ID: "CASE-2026-0040", Date: "2026-07-10", FileName: "batch_jun.csv",
			DatasetSize: 22100, NodeCount: 510, EdgeCount: 2100, TxCount: 22100,
			SuspiciousCount: 3, RingCount: 1, ProcessingTime: 4.7, RiskExposure: 31,
			TimeWindow: "2026-06-01 to 2026-06-30",
			TopPatterns: []string{domain.PatternCycle},
			RiskLevel:   domain.RiskLow,
		},
	}
}

// Rings returns the five detected sample rings.
func Rings() []domain.Ring {
	return []domain.Ring{
		{ID: "RING-001", RiskScore: 92, Confidence: 0.88, Members: []string{"ACC-1000", "ACC-1001", "ACC-1002"},
			PatternType: domain.PatternCycle, CycleLength: 3, AvgTxSize: 245000, TimeWindow: "48h", TotalFlow: 12400000},
		{ID: "RING-002", RiskScore: 85, Confidence: 0.79, Members: []string{"ACC-1003", "ACC-1004", "ACC-1005", "ACC-1006"},
			PatternType: domain.PatternFanIn, CycleLength: 4, AvgTxSize: 180000, TimeWindow: "72h", TotalFlow: 8700000},
		{ID: "RING-003", RiskScore: 78, Confidence: 0.72, Members: []string{"ACC-1005", "ACC-1006", "ACC-1007"},
			PatternType: domain.PatternLayering, CycleLength: 3, AvgTxSize: 310000, TimeWindow: "36h", TotalFlow: 6200000},
		{ID: "RING-004", RiskScore: 64, Confidence: 0.60, Members: []string{"ACC-1008", "ACC-1009"},
			PatternType: domain.PatternShell, CycleLength: 2, AvgTxSize: 520000, TimeWindow: "24h", TotalFlow: 3100000},
		{ID: "RING-005", RiskScore: 55, Confidence: 0.51, Members: []string{"ACC-1010", "ACC-1011", "ACC-1012", "ACC-1013", "ACC-1014"},
			PatternType: domain.PatternFanOut, CycleLength: 5, AvgTxSize: 95000, TimeWindow: "96h", TotalFlow: 4800000},
	}
}

// Edges returns the aggregated sample transaction edges.
func Edges() []domain.GraphEdge {
	return []domain.GraphEdge{
		{From: "ACC-1000", To: "ACC-1001", Amount: 450000, Count: 6},
		{From: "ACC-1001", To: "ACC-1002", Amount: 380000, Count: 4},
		{From: "ACC-1002", To: "ACC-1000", Amount: 420000, Count: 5},
		{From: "ACC-1003", To: "ACC-1004", Amount: 210000, Count: 3},
		{From: "ACC-1004", To: "ACC-1005", Amount: 195000, Count: 7},
		{From: "ACC-1005", To: "ACC-1006", Amount: 310000, Count: 2},
		{From: "ACC-1006", To: "ACC-1003", Amount: 280000, Count: 4},
		{From: "ACC-1005", To: "ACC-1007", Amount: 160000, Count: 3},
		{From: "ACC-1007", To: "ACC-1006", Amount: 140000, Count: 2},
		{From: "ACC-1008", To: "ACC-1009", Amount: 520000, Count: 8},
		{From: "ACC-1009", To: "ACC-1008", Amount: 490000, Count: 6},
		{From: "ACC-1010", To: "ACC-1011", Amount: 95000, Count: 2},
		{From: "ACC-1010", To: "ACC-1012", Amount: 110000, Count: 3},
		{From: "ACC-1010", To: "ACC-1013", Amount: 85000, Count: 1},
		{From: "ACC-1010", To: "ACC-1014", Amount: 130000, Count: 4},
		{From: "ACC-1015", To: "ACC-1000", Amount: 200000, Count: 2},
		{From: "ACC-1016", To: "ACC-1003", Amount: 175000, Count: 1},
		{From: "ACC-1017", To: "ACC-1010", Amount: 300000, Count: 3},
		{From: "ACC-1009", To: "ACC-1018", Amount: 250000, Count: 2},
		{From: "ACC-1014", To: "ACC-1019", Amount: 60000, Count: 1},
	}
}

// Accounts returns the 24 sample accounts. Ring assignments match the ring
// member lists; risk bands cover high, medium and low profiles so every
// insight path has material to work with.
func Accounts() []domain.Account {
	return []domain.Account{
		{ID: "ACC-1000", RiskScore: 92, Confidence: 0.95, RingID: "RING-001", InDegree: 9, OutDegree: 11,
			UniqueCounterparties: 18, SCCID: intPtr(0), KCoreLevel: 4, CentralityScore: 0.82,
			VelocityLabel: domain.VelocityHigh, Patterns: []string{domain.PatternCycle, domain.PatternVelocity},
			TotalIn: 3400000, TotalOut: 4100000, TxCount: 186},
		{ID: "ACC-1001", RiskScore: 88, Confidence: 0.90, RingID: "RING-001", InDegree: 7, OutDegree: 8,
			UniqueCounterparties: 14, SCCID: intPtr(0), KCoreLevel: 4, CentralityScore: 0.74,
			VelocityLabel: domain.VelocityHigh, Patterns: []string{domain.PatternCycle},
			TotalIn: 2800000, TotalOut: 2650000, TxCount: 142},
		{ID: "ACC-1002", RiskScore: 84, Confidence: 0.81, RingID: "RING-001", InDegree: 6, OutDegree: 7,
			UniqueCounterparties: 12, SCCID: intPtr(0), KCoreLevel: 3, CentralityScore: 0.68,
			VelocityLabel: domain.VelocityHigh, Patterns: []string{domain.PatternCycle, domain.PatternSuddenJump},
			TotalIn: 2300000, TotalOut: 2400000, TxCount: 121},
		{ID: "ACC-1003", RiskScore: 79, Confidence: 0.77, RingID: "RING-002", InDegree: 12, OutDegree: 4,
			UniqueCounterparties: 16, SCCID: intPtr(1), KCoreLevel: 3, CentralityScore: 0.61,
			VelocityLabel: domain.VelocityHigh, Patterns: []string{domain.PatternFanIn},
			TotalIn: 3100000, TotalOut: 900000, TxCount: 98},
		{ID: "ACC-1004", RiskScore: 76, Confidence: 0.72, RingID: "RING-002", InDegree: 5, OutDegree: 6,
			UniqueCounterparties: 11, SCCID: intPtr(1), KCoreLevel: 3, CentralityScore: 0.55,
			VelocityLabel: domain.VelocityHigh, Patterns: []string{domain.PatternFanIn, domain.PatternLayering},
			TotalIn: 1900000, TotalOut: 1750000, TxCount: 87},
		{ID: "ACC-1005", RiskScore: 68, Confidence: 0.70, RingID: "RING-002", InDegree: 8, OutDegree: 9,
			UniqueCounterparties: 15, SCCID: intPtr(1), KCoreLevel: 2, CentralityScore: 0.49,
			VelocityLabel: domain.VelocityMedium, Patterns: []string{domain.PatternLayering},
			TotalIn: 1450000, TotalOut: 1600000, TxCount: 74},
		{ID: "ACC-1006", RiskScore: 65, Confidence: 0.61, RingID: "RING-002", InDegree: 7, OutDegree: 5,
			UniqueCounterparties: 10, SCCID: intPtr(2), KCoreLevel: 2, CentralityScore: 0.44,
			VelocityLabel: domain.VelocityMedium, Patterns: []string{domain.PatternLayering},
			TotalIn: 1200000, TotalOut: 980000, TxCount: 66},
		{ID: "ACC-1007", RiskScore: 61, Confidence: 0.58, RingID: "RING-003", InDegree: 4, OutDegree: 4,
			UniqueCounterparties: 8, SCCID: intPtr(2), KCoreLevel: 2, CentralityScore: 0.38,
			VelocityLabel: domain.VelocityMedium, Patterns: []string{domain.PatternShell},
			TotalIn: 870000, TotalOut: 810000, TxCount: 52},
		{ID: "ACC-1008", RiskScore: 58, Confidence: 0.55, RingID: "RING-004", InDegree: 3, OutDegree: 5,
			UniqueCounterparties: 7, SCCID: intPtr(2), KCoreLevel: 2, CentralityScore: 0.35,
			VelocityLabel: domain.VelocityMedium, Patterns: []string{domain.PatternShell},
			TotalIn: 760000, TotalOut: 820000, TxCount: 48},
		{ID: "ACC-1009", RiskScore: 54, Confidence: 0.52, RingID: "RING-004", InDegree: 5, OutDegree: 4,
			UniqueCounterparties: 9, SCCID: intPtr(3), KCoreLevel: 1, CentralityScore: 0.31,
			VelocityLabel: domain.VelocityMedium, Patterns: []string{},
			TotalIn: 690000, TotalOut: 640000, TxCount: 41},
		{ID: "ACC-1010", RiskScore: 51, Confidence: 0.49, RingID: "RING-005", InDegree: 3, OutDegree: 14,
			UniqueCounterparties: 17, KCoreLevel: 1, CentralityScore: 0.47,
			VelocityLabel: domain.VelocityMedium, Patterns: []string{domain.PatternFanOut},
			TotalIn: 540000, TotalOut: 1150000, TxCount: 39},
		{ID: "ACC-1011", RiskScore: 47, Confidence: 0.45, RingID: "RING-005", InDegree: 2, OutDegree: 2,
			UniqueCounterparties: 4, KCoreLevel: 1, CentralityScore: 0.22,
			VelocityLabel: domain.VelocityMedium, Patterns: []string{},
			TotalIn: 310000, TotalOut: 280000, TxCount: 27},
		{ID: "ACC-1012", RiskScore: 43, Confidence: 0.41, RingID: "RING-005", InDegree: 2, OutDegree: 3,
			UniqueCounterparties: 5, KCoreLevel: 1, CentralityScore: 0.19,
			VelocityLabel: domain.VelocityMedium, Patterns: []string{},
			TotalIn: 290000, TotalOut: 260000, TxCount: 24},
		{ID: "ACC-1013", RiskScore: 40, Confidence: 0.38, RingID: "RING-005", InDegree: 1, OutDegree: 2,
			UniqueCounterparties: 3, KCoreLevel: 1, CentralityScore: 0.15,
			VelocityLabel: domain.VelocityMedium, Patterns: []string{},
			TotalIn: 180000, TotalOut: 160000, TxCount: 18},
		{ID: "ACC-1014", RiskScore: 38, Confidence: 0.36, RingID: "RING-005", InDegree: 2, OutDegree: 2,
			UniqueCounterparties: 4, KCoreLevel: 1, CentralityScore: 0.13,
			VelocityLabel: domain.VelocityMedium, Patterns: []string{},
			TotalIn: 150000, TotalOut: 130000, TxCount: 15},
		{ID: "ACC-1015", RiskScore: 29, Confidence: 0.30, InDegree: 2, OutDegree: 3,
			UniqueCounterparties: 5, KCoreLevel: 1, CentralityScore: 0.11,
			VelocityLabel: domain.VelocityLow, Patterns: []string{},
			TotalIn: 220000, TotalOut: 240000, TxCount: 19},
		{ID: "ACC-1016", RiskScore: 26, Confidence: 0.27, InDegree: 1, OutDegree: 2,
			UniqueCounterparties: 3, KCoreLevel: 1, CentralityScore: 0.09,
			VelocityLabel: domain.VelocityLow, Patterns: []string{},
			TotalIn: 140000, TotalOut: 175000, TxCount: 12},
		{ID: "ACC-1017", RiskScore: 24, Confidence: 0.25, InDegree: 2, OutDegree: 1,
			UniqueCounterparties: 3, KCoreLevel: 1, CentralityScore: 0.08,
			VelocityLabel: domain.VelocityLow, Patterns: []string{},
			TotalIn: 160000, TotalOut: 300000, TxCount: 11},
		{ID: "ACC-1018", RiskScore: 21, Confidence: 0.22, InDegree: 3, OutDegree: 1,
			UniqueCounterparties: 4, KCoreLevel: 1, CentralityScore: 0.07,
			VelocityLabel: domain.VelocityLow, Patterns: []string{},
			TotalIn: 250000, TotalOut: 90000, TxCount: 9},
		{ID: "ACC-1019", RiskScore: 18, Confidence: 0.20, InDegree: 1, OutDegree: 1,
			UniqueCounterparties: 2, KCoreLevel: 1, CentralityScore: 0.06,
			VelocityLabel: domain.VelocityLow, Patterns: []string{},
			TotalIn: 60000, TotalOut: 40000, TxCount: 6},
		{ID: "ACC-1020", RiskScore: 15, Confidence: 0.18, InDegree: 2, OutDegree: 2,
			UniqueCounterparties: 4, KCoreLevel: 1, CentralityScore: 0.05,
			VelocityLabel: domain.VelocityLow, Patterns: []string{},
			TotalIn: 95000, TotalOut: 85000, TxCount: 8},
		{ID: "ACC-1021", RiskScore: 12, Confidence: 0.15, InDegree: 1, OutDegree: 1,
			UniqueCounterparties: 2, KCoreLevel: 1, CentralityScore: 0.04,
			VelocityLabel: domain.VelocityLow, Patterns: []string{},
			TotalIn: 70000, TotalOut: 65000, TxCount: 5},
		{ID: "ACC-1022", RiskScore: 9, Confidence: 0.12, InDegree: 1, OutDegree: 1,
			UniqueCounterparties: 2, KCoreLevel: 1, CentralityScore: 0.03,
			VelocityLabel: domain.VelocityLow, Patterns: []string{},
			TotalIn: 45000, TotalOut: 38000, TxCount: 4},
		{ID: "ACC-1023", RiskScore: 6, Confidence: 0.10, InDegree: 1, OutDegree: 1,
			UniqueCounterparties: 2, KCoreLevel: 1, CentralityScore: 0.02,
			VelocityLabel: domain.VelocityLow, Patterns: []string{},
			TotalIn: 30000, TotalOut: 25000, TxCount: 3},
	}
}

package strategy

import "fmt"

var (
	standardTable = mustBuild("standard", standardHard, standardSoft, standardPairs)
	freeBetTable  = mustBuild("free", freeHard, freeSoft, freePairs)
)

// Rows are dealer columns 2-9, 10, A.

var standardHard = []string{
	5:  "HHHHHHHHHH",
	6:  "HHHHHHHHHH",
	7:  "HHHHHHHHHH",
	8:  "HHHHHHHHHH",
	9:  "HDDDDHHHHH",
	10: "DDDDDDDDHH",
	11: "DDDDDDDDDH",
	12: "HHSSSHHHHH",
	13: "SSSSSHHHHH",
	14: "SSSSSHHHHH",
	15: "SSSSSHHHHH",
	16: "SSSSSHHHHH",
	17: "SSSSSSSSSS",
	18: "SSSSSSSSSS",
	19: "SSSSSSSSSS",
	20: "SSSSSSSSSS",
	21: "SSSSSSSSSS",
}

var standardSoft = []string{
	13: "HHHDDHHHHH",
	14: "HHHDDHHHHH",
	15: "HHDDDHHHHH",
	16: "HHDDDHHHHH",
	17: "HDDDDHHHHH",
	18: "SDDDDSSSSH",
	19: "SSSSSSSSSS",
	20: "SSSSSSSSSS",
	21: "SSSSSSSSSS",
}

// pairs are keyed 2..10, 11 for aces
var standardPairs = []string{
	2:  "PPPPPPHHHH",
	3:  "PPPPPPHHHH",
	4:  "HHHPPHHHHH",
	5:  "DDDDDDDDHH",
	6:  "PPPPPHHHHH",
	7:  "PPPPPPHHHH",
	8:  "PPPPPPPPPP",
	9:  "PPPPPSPPSS",
	10: "SSSSSSSSSS",
	11: "PPPPPPPPPP",
}

var freeHard = []string{
	5:  "HHHHHHHHHH",
	6:  "HHHHHHHHHH",
	7:  "HHHHHHHHHH",
	8:  "HHHHHHHHHH",
	9:  "DDDDDDDDDD",
	10: "DDDDDDDDDD",
	11: "DDDDDDDDDD",
	12: "HHSSSHHHHH",
	13: "SSSSSHHHHH",
	14: "SSSSSHHHHH",
	15: "SSSSSHHHHH",
	16: "SSSSSHHHHH",
	17: "SSSSSSSSSS",
	18: "SSSSSSSSSS",
	19: "SSSSSSSSSS",
	20: "SSSSSSSSSS",
	21: "SSSSSSSSSS",
}

var freeSoft = []string{
	13: "HHHDDHHHHH",
	14: "HHHDDHHHHH",
	15: "HHDDDHHHHH",
	16: "HHDDDHHHHH",
	17: "DDDDDHHHHH",
	18: "SDDDDSSSSH",
	19: "SSSSSSSSSS",
	20: "SSSSSSSSSS",
	21: "SSSSSSSSSS",
}

var freePairs = []string{
	2:  "PPPPPPPPPP",
	3:  "PPPPPPPPPP",
	4:  "PPPPPPPPPP",
	5:  "DDDDDDDDHH",
	6:  "PPPPPPPPPP",
	7:  "PPPPPPPPPP",
	8:  "PPPPPPPPPP",
	9:  "PPPPPPPPPP",
	10: "SSSSSSSSSS",
	11: "PPPPPPPPPP",
}

func mustBuild(name string, hard, soft, pairs []string) *Table {
	t := &Table{name: name}
	for total := hardMin; total <= hardMax; total++ {
		t.hard[total-hardMin] = mustRow(name, "hard", total, hard[total])
	}
	for total := softMin; total <= softMax; total++ {
		t.soft[total-softMin] = mustRow(name, "soft", total, soft[total])
	}
	for key := 2; key <= 11; key++ {
		t.pairs[key-2] = mustRow(name, "pairs", key, pairs[key])
	}
	return t
}

func mustRow(table, category string, key int, row string) [10]Action {
	var actions [10]Action
	if len(row) != len(actions) {
		panic(fmt.Sprintf("%s %s row %d: want 10 columns, got %d", table, category, key, len(row)))
	}
	for i := range row {
		a, err := ParseAction(row[i : i+1])
		if err != nil {
			panic(fmt.Sprintf("%s %s row %d: %v", table, category, key, err))
		}
		actions[i] = a
	}
	return actions
}

package env_test

import (
	"os"
	"testing"

	"github.com/shimomut/tfm-sub010/internal/env"
)

func TestExportSetsProcessEnvironment(t *testing.T) {
	t.Cleanup(func() { os.Unsetenv("TFM_TEST_VAR") })
	if err := env.Export(map[string]string{"TFM_TEST_VAR": "value"}); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("TFM_TEST_VAR"); got != "value" {
		t.Fatalf("os.Getenv(TFM_TEST_VAR) = %q, want value", got)
	}
}

func TestVarsFallsBackToFocusedWhenSelectionEmpty(t *testing.T) {
	left := env.PaneSnapshot{Dir: "/home/user", Focused: "readme.txt"}
	right := env.PaneSnapshot{Dir: "/tmp"}
	vars := env.Vars(left, right, "left")

	if vars["TFM_LEFT_SELECTED"] != "'readme.txt'" {
		t.Fatalf("TFM_LEFT_SELECTED = %q, want quoted focused item", vars["TFM_LEFT_SELECTED"])
	}
	if vars["TFM_THIS_DIR"] != "/home/user" || vars["TFM_OTHER_DIR"] != "/tmp" {
		t.Fatalf("THIS/OTHER dirs = %q/%q, want left/right for active=left", vars["TFM_THIS_DIR"], vars["TFM_OTHER_DIR"])
	}
	if vars["TFM_ACTIVE"] != "1" {
		t.Fatal("TFM_ACTIVE must always be set to 1")
	}
}

func TestVarsPrefersSelectionOverFocused(t *testing.T) {
	left := env.PaneSnapshot{Dir: "/a", Selected: []string{"a.txt", "b.txt"}, Focused: "a.txt"}
	right := env.PaneSnapshot{Dir: "/b"}
	vars := env.Vars(left, right, "right")

	if vars["TFM_LEFT_SELECTED"] != "'a.txt' 'b.txt'" {
		t.Fatalf("TFM_LEFT_SELECTED = %q, want both selected names quoted", vars["TFM_LEFT_SELECTED"])
	}
	if vars["TFM_THIS_DIR"] != "/b" || vars["TFM_OTHER_DIR"] != "/a" {
		t.Fatalf("THIS/OTHER dirs wrong for active=right: this=%q other=%q", vars["TFM_THIS_DIR"], vars["TFM_OTHER_DIR"])
	}
}

func TestVarsQuotesEmbeddedSingleQuotesAndSpaces(t *testing.T) {
	left := env.PaneSnapshot{Dir: "/a", Selected: []string{"it's a file.txt"}}
	right := env.PaneSnapshot{Dir: "/b"}
	vars := env.Vars(left, right, "left")

	want := `'it'\''s a file.txt'`
	if vars["TFM_LEFT_SELECTED"] != want {
		t.Fatalf("TFM_LEFT_SELECTED = %q, want %q", vars["TFM_LEFT_SELECTED"], want)
	}
}

package where

import (
	"path/filepath"
	"testing"

	"github.com/avsync-cli/avsync/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Logs() lives under Config()", func() {
			path := Logs()
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
			So(filepath.Dir(path), ShouldEqual, Config())
		})

		Convey("Timelines()", func() {
			So(lo.Must(filesystem.API().IsDir(Timelines())), ShouldBeTrue)
		})

		Convey("History() is a file inside Cache()", func() {
			So(filepath.Dir(History()), ShouldEqual, Cache())
			So(filepath.Ext(History()), ShouldEqual, ".json")
		})

		Convey("Config() honours the override variable", func() {
			t.Setenv(EnvConfigPath, "/custom/avsync")
			So(Config(), ShouldEqual, "/custom/avsync")
			So(lo.Must(filesystem.API().IsDir("/custom/avsync")), ShouldBeTrue)
		})
	})
}

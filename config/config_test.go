package config

import (
	"testing"

	"github.com/avsync-cli/avsync/filesystem"
	"github.com/avsync-cli/avsync/key"
	"github.com/avsync-cli/avsync/where"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestDefaults(t *testing.T) {
	Convey("Given the registered defaults", t, func() {
		Convey("Every defined key is registered exactly once", func() {
			So(len(Default), ShouldEqual, key.DefinedFieldsCount)
			So(len(EnvExposed), ShouldEqual, key.DefinedFieldsCount)
		})

		Convey("Every field has a known type and a description", func() {
			for _, field := range Default {
				So(field.TypeName(), ShouldNotEqual, "unknown")
				So(field.Description, ShouldNotBeEmpty)
			}
		})

		Convey("Defaults produce sane playback options", func() {
			opts := Defaults()
			So(opts.Speed, ShouldEqual, 1.0)
			So(opts.Loop, ShouldEqual, -1)
			So(opts.MaxPtsCorrection, ShouldBeLessThan, 0)
			So(opts.CorrectPts, ShouldBeTrue)
			So(opts.AudioDriver, ShouldEqual, "oto")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given the speed field", t, func() {
		field := Default[key.PlaybackSpeed]

		Convey("Its env name is prefixed and underscored", func() {
			So(field.Env(), ShouldEqual, "AVSYNC_PLAYBACK_SPEED")
		})

		Convey("Parse converts to float", func() {
			v, err := field.Parse("1.5")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 1.5)
		})

		Convey("Parse rejects garbage", func() {
			_, err := field.Parse("fast")
			So(err, ShouldNotBeNil)
		})

		Convey("Pretty mentions the key", func() {
			So(field.Pretty(), ShouldContainSubstring, key.PlaybackSpeed)
		})
	})
}

func TestSetup(t *testing.T) {
	Convey("Given no config file", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("Defaults are visible through viper", func() {
			for name := range Default {
				So(viper.IsSet(name), ShouldBeTrue)
			}
		})
	})

	Convey("Given a config file overriding speed", t, func() {
		path := where.Config() + "/avsync.toml"
		lo.Must0(afero.WriteFile(filesystem.API(), path, []byte("[playback]\nspeed = 2.0\n"), 0o644))
		So(Setup(), ShouldBeNil)

		Convey("Load picks up the override", func() {
			So(Load().Speed, ShouldEqual, 2.0)
		})

		Reset(func() {
			_ = filesystem.API().Remove(path)
			viper.Set(key.PlaybackSpeed, 1.0)
		})
	})
}

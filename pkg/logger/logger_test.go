package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When Init is called", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get and Named return usable loggers", func() {
				So(Get(), ShouldNotBeNil)
				So(Named("test"), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
				Get().Info(context.Background(), "test message", String("k", "v"))
			})
		})

		Convey("When an unknown format is requested", func() {
			So(InitWith(&bytes.Buffer{}, Format("xml")), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger on a buffer", t, func() {
		SetLevel(0)
		var buf bytes.Buffer
		l := New(&buf, FormatJSON).Named("engine")

		Convey("When logging with fields", func() {
			l.Info(context.Background(), "ranked roster", Int("students", 3), Bool("cached", false))

			Convey("Then the record carries fields, component and source", func() {
				var rec map[string]interface{}
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "ranked roster")
				So(rec["students"], ShouldEqual, float64(3))
				So(rec["component"], ShouldEqual, "engine")
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised above info", func() {
			Reset(func() { _ = SetLevelString("info") })
			So(SetLevelString("error"), ShouldBeNil)
			l.Info(context.Background(), "dropped")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Level and format parsing", t, func() {
		So(SetLevelString("WARNING"), ShouldBeNil)
		So(SetLevelString("loud"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)

		f, err := ParseFormat("JSON")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, FormatJSON)
		f, err = ParseFormat("")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, FormatText)
		_, err = ParseFormat("xml")
		So(err, ShouldNotBeNil)
	})
}

package helper

import (
	"strings"
	"unicode"
)

// forbiddenChars 不能出现在 Windows 文件名中，替换为下划线
const forbiddenChars = `<>:"/\|?*` + "\x00"

// invisible 是没有可见字形的格式字符和控制字符，直接丢弃
var invisible = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x007f, Hi: 0x007f, Stride: 1}, // DEL
		{Lo: 0x00ad, Hi: 0x00ad, Stride: 1}, // soft hyphen
		{Lo: 0x034f, Hi: 0x034f, Stride: 1}, // combining grapheme joiner
		{Lo: 0x061c, Hi: 0x061c, Stride: 1}, // arabic letter mark
		{Lo: 0x180e, Hi: 0x180e, Stride: 1}, // mongolian vowel separator
		{Lo: 0x200b, Hi: 0x200f, Stride: 1}, // zero width, LRM, RLM
		{Lo: 0x202a, Hi: 0x202e, Stride: 1}, // bidi embedding and override
		{Lo: 0x2060, Hi: 0x2060, Stride: 1}, // word joiner
		{Lo: 0xfeff, Hi: 0xfeff, Stride: 1}, // BOM
	},
	LatinOffset: 2,
}

// spaces 是各种 Unicode 空格，统一为普通空格
var spaces = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00a0, Hi: 0x00a0, Stride: 1},
		{Lo: 0x2000, Hi: 0x200a, Stride: 1},
		{Lo: 0x2028, Hi: 0x2029, Stride: 1},
		{Lo: 0x202f, Hi: 0x202f, Stride: 1},
		{Lo: 0x205f, Hi: 0x205f, Stride: 1},
		{Lo: 0x3000, Hi: 0x3000, Stride: 1},
	},
	LatinOffset: 1,
}

// windowsDevices 是 Windows 保留的设备名（小写）
var windowsDevices = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {},
	"com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {},
	"lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

// mapRune 返回 r 在文件名中的替代字符，-1 表示丢弃
func mapRune(r rune) rune {
	switch {
	case strings.ContainsRune(forbiddenChars, r):
		return '_'
	case unicode.Is(invisible, r):
		return -1
	case unicode.Is(spaces, r):
		return ' '
	case !unicode.IsPrint(r):
		// 其余控制字符，包括 Tab 和换行
		return -1
	}
	return r
}

// sanitize 替换或丢弃非法字符，合并空白，并去掉结尾的空格和点
func sanitize(name string) string {
	fields := strings.Fields(strings.Map(mapRune, name))
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimRight(strings.Join(fields, " "), ". ")
}

// HandleReservedNames 给 Windows 保留设备名加上 ReservedSuffix 后缀
// 扩展名保持不变，匹配不区分大小写。
//
//	"CON.txt" -> "CON_file.txt"
//	"con"     -> "con_file"
func HandleReservedNames(filename string) string {
	base, ext := filename, ""
	if dot := strings.LastIndexByte(filename, '.'); dot > 0 && dot < len(filename)-1 {
		base, ext = filename[:dot], filename[dot:]
	}

	if _, ok := windowsDevices[strings.ToLower(base)]; ok {
		return base + ReservedSuffix + ext
	}
	return filename
}

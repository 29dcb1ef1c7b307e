package layout

// BaseStyles is the stylesheet shipped with every conversion. It is
// independent of document content, so callers may reuse it freely.
const BaseStyles = `body {
  margin: 0;
  padding: 20px;
  background: #525659;
  font-family: Arial, sans-serif;
}
.pdf-page {
  position: relative;
  margin: 0 auto 20px auto;
  background: #ffffff;
  box-shadow: 0 2px 8px rgba(0, 0, 0, 0.35);
  overflow: hidden;
}
.text-run {
  position: absolute;
  line-height: 1.2;
  transform-origin: left bottom;
}
.image-placeholder {
  position: absolute;
  left: 50%;
  bottom: 16px;
  transform: translateX(-50%);
  padding: 6px 14px;
  border: 1px dashed #999999;
  border-radius: 4px;
  color: #666666;
  font-size: 13px;
  background: #fafafa;
}
table {
  border-collapse: collapse;
}
table td, table th {
  border: 1px solid #cccccc;
  padding: 4px 8px;
}
table th {
  background: #f0f0f0;
}
@media print {
  body {
    padding: 0;
    background: #ffffff;
  }
  .pdf-page {
    margin: 0;
    box-shadow: none;
    page-break-inside: avoid;
  }
}
`

// BaseStyleSheet returns the constant stylesheet.
func BaseStyleSheet() string { return BaseStyles }
